package cluster

import (
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/go-gl/mathgl/mgl32"
)

// maxClipPoints bounds the points produced by clipping a box against a plane: eight corners and
// one crossing per edge.
const maxClipPoints = 8 + 12

// ClipBoxToNear returns the corners of a box that lie at z >= near together with every point
// where a box edge crosses z = near. The result spans the clipped solid's vertices.
//
// Parameters:
//   - corners: the box corners in view space, indexed so that bit k of the index selects the
//     far side along axis k
//   - near: the clipping depth
//   - dst: storage for the result
//
// Returns:
//   - []mgl32.Vec3: the clipped points (a prefix of dst)
func ClipBoxToNear(corners *[8]mgl32.Vec3, near float32, dst *[maxClipPoints]mgl32.Vec3) []mgl32.Vec3 {
	n := 0
	for _, p := range corners {
		if p[2] >= near {
			dst[n] = p
			n++
		}
	}
	for i := range 8 {
		for bit := 1; bit < 8; bit <<= 1 {
			if i&bit != 0 {
				continue
			}
			a, b := corners[i], corners[i|bit]
			if (a[2] < near) == (b[2] < near) {
				continue
			}
			t := (near - a[2]) / (b[2] - a[2])
			p := a.Add(b.Sub(a).Mul(t))
			p[2] = near
			dst[n] = p
			n++
		}
	}
	return dst[:n]
}

// ConvexHull computes the convex hull of a small point set by gift wrapping from the leftmost
// point. Collinear points are skipped in favor of the farthest one. The hull is written to dst in
// counter-clockwise order.
//
// Parameters:
//   - points: the input points
//   - dst: storage for the result, at least len(points) long
//
// Returns:
//   - []mgl32.Vec2: the hull vertices (a prefix of dst); empty when points is empty
func ConvexHull(points []mgl32.Vec2, dst []mgl32.Vec2) []mgl32.Vec2 {
	if len(points) == 0 {
		return dst[:0]
	}

	start := 0
	for i, p := range points {
		s := points[start]
		if p[0] < s[0] || (p[0] == s[0] && p[1] < s[1]) {
			start = i
		}
	}

	n := 0
	cur := start
	for range len(points) {
		dst[n] = points[cur]
		n++

		next := -1
		for i, p := range points {
			if i == cur || p == points[cur] {
				continue
			}
			if next < 0 {
				next = i
				continue
			}
			a := points[next].Sub(points[cur])
			b := p.Sub(points[cur])
			cross := common.Cross2(a, b)
			if cross < 0 || (cross == 0 && b.Dot(b) > a.Dot(a)) {
				next = i
			}
		}
		if next < 0 || next == start || points[next] == points[start] {
			break
		}
		cur = next
	}
	return dst[:n]
}

// NearPlaneBoxClipAndHull clips a view-space box against the near plane, projects the surviving
// points with project and returns their convex hull. The hull is empty when the box lies
// entirely behind the near plane.
//
// Parameters:
//   - corners: the box corners in view space
//   - near: the near plane depth
//   - project: maps a view-space point at z >= near to 2D
//   - dst: storage for the hull
//
// Returns:
//   - []mgl32.Vec2: the hull vertices (a prefix of dst)
func NearPlaneBoxClipAndHull(corners *[8]mgl32.Vec3, near float32, project func(mgl32.Vec3) mgl32.Vec2, dst *[maxClipPoints]mgl32.Vec2) []mgl32.Vec2 {
	var clipped [maxClipPoints]mgl32.Vec3
	pts := ClipBoxToNear(corners, near, &clipped)

	var projected [maxClipPoints]mgl32.Vec2
	for i, p := range pts {
		projected[i] = project(p)
	}
	return ConvexHull(projected[:len(pts)], dst[:])
}
