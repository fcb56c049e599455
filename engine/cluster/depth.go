package cluster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SphereDepth returns the view-space depth extent of a sphere.
//
// Parameters:
//   - center: sphere center in view space
//   - radius: sphere radius
//
// Returns:
//   - float32: minimum depth
//   - float32: maximum depth
func SphereDepth(center mgl32.Vec3, radius float32) (float32, float32) {
	return center[2] - radius, center[2] + radius
}

// ConeDepth returns the view-space depth extent of a spot light cone capped by its range sphere.
// The extent comes from the apex and the bounding box of the base disc. When the view direction
// (or its opposite) lies inside the cone the sphere pole bounds that side instead.
//
// Parameters:
//   - c: the cone in view space
//
// Returns:
//   - float32: minimum depth
//   - float32: maximum depth
func ConeDepth(c *Cone) (float32, float32) {
	dz := c.Axis[2]
	e := math32.Sqrt(max(1-dz*dz, 0))
	apex := c.Apex[2]

	var lo, hi float32
	if -dz >= c.cosA {
		lo = apex - c.Range
	} else {
		lo = min(apex, c.base[2]-e*c.baseRadius)
	}
	if dz >= c.cosA {
		hi = apex + c.Range
	} else {
		hi = max(apex, c.base[2]+e*c.baseRadius)
	}
	return lo, hi
}

// BoxDepth returns the view-space depth extent of a box given its corners in view space.
//
// Parameters:
//   - corners: the eight box corners
//
// Returns:
//   - float32: minimum depth
//   - float32: maximum depth
func BoxDepth(corners *[8]mgl32.Vec3) (float32, float32) {
	lo, hi := corners[0][2], corners[0][2]
	for _, p := range corners[1:] {
		lo = min(lo, p[2])
		hi = max(hi, p[2])
	}
	return lo, hi
}
