package common

import (
	"math"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Epsilon is the threshold below which lengths and divisors in the culling geometry are
// treated as zero. Contributions that would divide by a smaller value are skipped.
const Epsilon float32 = 1e-6

// Number is the set of scalar types accepted by the generic clamp helpers.
type Number interface {
	constraints.Integer | constraints.Float
}

// Clamp limits v to the inclusive range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: lower bound
//   - hi: upper bound (must be >= lo)
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T Number](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Square returns v*v.
func Square[T Number](v T) T {
	return v * v
}

// NearZero reports whether |v| is below Epsilon.
func NearZero(v float32) bool {
	return math32.Abs(v) < Epsilon
}

// FloorToInt floors v and converts it to an int without relying on the platform-specific
// behavior of converting non-finite floats. Infinities saturate to the int32 range and NaN
// maps to 0, so callers can clamp the result safely.
//
// Parameters:
//   - v: the value to floor
//
// Returns:
//   - int: floor(v), saturated to [math.MinInt32, math.MaxInt32]
func FloorToInt(v float32) int {
	switch {
	case math32.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(math32.Floor(v))
}

// Cross2 returns the z component of the cross product of two 2D vectors.
func Cross2(a, b mgl32.Vec2) float32 {
	return a[0]*b[1] - a[1]*b[0]
}

// TransformPoint applies a 4x4 matrix to a point (w = 1) and drops the w component.
//
// Parameters:
//   - m: the affine transform (column-major)
//   - p: the point to transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies the rotational part of a 4x4 matrix to a direction (w = 0).
//
// Parameters:
//   - m: the affine transform (column-major)
//   - d: the direction to transform
//
// Returns:
//   - mgl32.Vec3: the transformed direction (not renormalized)
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}
