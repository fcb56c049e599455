package cluster

import (
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry routines work in cluster view space: x right, y up, +z forward. They are pure and
// allocation free so any number of items can be analysed in parallel. A routine that would
// divide by a near-zero value reports ok=false and the caller drops that contribution.

// validSlack is the tolerance used when testing whether a computed point lies inside a light
// volume. Accepting points marginally outside can only widen a range.
const validSlack float32 = 1e-4

// SolveTrig solves a*sin(t) + b*cos(t) = c for t.
//
// Parameters:
//   - a, b, c: the equation coefficients
//
// Returns:
//   - float32: the first solution in radians
//   - float32: the second solution in radians (equal to the first for a tangent solution)
//   - bool: false when a and b are both near zero or |c| exceeds their magnitude
func SolveTrig(a, b, c float32) (float32, float32, bool) {
	m := math32.Sqrt(a*a + b*b)
	if m < common.Epsilon {
		return 0, 0, false
	}
	k := c / m
	if k > 1 || k < -1 {
		return 0, 0, false
	}
	phi := math32.Atan2(b, a)
	s := math32.Asin(k)
	return s - phi, math32.Pi - s - phi, true
}

// ClipRadius returns the radius of the circle cut from a sphere of radius r by a plane at
// signed distance dz from its center, or -1 when the plane misses the sphere.
func ClipRadius(r, dz float32) float32 {
	s := r*r - dz*dz
	if s < 0 {
		return -1
	}
	return math32.Sqrt(s)
}

// SphereHorizon finds the points of a disc, restricted to z >= near, with the smallest and
// largest slope a/z as seen from the origin. The disc is a sphere's section in a plane through
// the origin, given in that plane's (a, z) coordinates. Tangent points behind the near plane are
// replaced by the endpoints of the near-plane chord.
//
// Parameters:
//   - center: disc center as (a, z)
//   - radius: disc radius
//   - near: near plane distance (> 0)
//   - clipRadius: half-length of the chord cut at z = near, or a negative value if none
//
// Returns:
//   - mgl32.Vec2: the point with the smallest slope
//   - mgl32.Vec2: the point with the largest slope
//   - bool: false when no part of the disc lies at z >= near
func SphereHorizon(center mgl32.Vec2, radius, near, clipRadius float32) (mgl32.Vec2, mgl32.Vec2, bool) {
	pts, n := sphereCandidates(center, radius, near, clipRadius, false)
	if n == 0 {
		return mgl32.Vec2{}, mgl32.Vec2{}, false
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:n] {
		s := p[0] / p[1]
		if s < lo[0]/lo[1] {
			lo = p
		}
		if s > hi[0]/hi[1] {
			hi = p
		}
	}
	return lo, hi, true
}

// sphereCandidates returns every point of a disc, restricted to z >= near, that can carry an
// extreme of a/z (perspective) or of a (orthographic): the two horizon points when they lie in
// front of the near plane and the two endpoints of the near-plane chord when it exists.
func sphereCandidates(center mgl32.Vec2, radius, near, clipRadius float32, orthographic bool) ([4]mgl32.Vec2, int) {
	var pts [4]mgl32.Vec2
	n := 0
	if center[1]+radius < near {
		return pts, 0
	}

	if orthographic {
		if center[1] >= near {
			pts[0] = mgl32.Vec2{center[0] - radius, center[1]}
			pts[1] = mgl32.Vec2{center[0] + radius, center[1]}
			n = 2
		}
	} else {
		d2 := center.Dot(center)
		r2 := radius * radius
		if d2-r2 > common.Epsilon {
			d := math32.Sqrt(d2)
			l2 := d2 - r2
			dir := center.Mul(1 / d)
			foot := dir.Mul(l2 / d)
			h := math32.Sqrt(l2) * radius / d
			perp := mgl32.Vec2{-dir[1], dir[0]}
			for _, t := range [2]mgl32.Vec2{foot.Add(perp.Mul(h)), foot.Sub(perp.Mul(h))} {
				if t[1] >= near {
					pts[n] = t
					n++
				}
			}
		}
	}
	if clipRadius >= 0 {
		pts[n] = mgl32.Vec2{center[0] - clipRadius, near}
		pts[n+1] = mgl32.Vec2{center[0] + clipRadius, near}
		n += 2
	}
	return pts, n
}

// SphereExtentOrtho is the orthographic twin of SphereHorizon: it returns the points of the disc,
// restricted to z >= near, with the smallest and largest a coordinate.
//
// Parameters:
//   - center: disc center as (a, z)
//   - radius: disc radius
//   - near: near plane distance
//   - clipRadius: half-length of the chord cut at z = near, or a negative value if none
//
// Returns:
//   - mgl32.Vec2: the point with the smallest a
//   - mgl32.Vec2: the point with the largest a
//   - bool: false when no part of the disc lies at z >= near
func SphereExtentOrtho(center mgl32.Vec2, radius, near, clipRadius float32) (mgl32.Vec2, mgl32.Vec2, bool) {
	pts, n := sphereCandidates(center, radius, near, clipRadius, true)
	if n == 0 {
		return mgl32.Vec2{}, mgl32.Vec2{}, false
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:n] {
		if p[0] < lo[0] {
			lo = p
		}
		if p[0] > hi[0] {
			hi = p
		}
	}
	return lo, hi, true
}

// ProjectedCircleHorizon finds the parameters of the points on the curve c + u*cos(t) + v*sin(t)
// where the slope a/z is stationary, i.e. where a ray from the origin grazes the curve. Applied
// to the (a, z) components of a 3D circle this yields the circle's horizon under perspective.
//
// Parameters:
//   - c: curve center as (a, z)
//   - u: first semi-axis as (a, z)
//   - v: second semi-axis as (a, z)
//
// Returns:
//   - float32, float32: the two curve parameters in radians
//   - bool: false when the origin lies inside the projected curve or the system is degenerate
func ProjectedCircleHorizon(c, u, v mgl32.Vec2) (float32, float32, bool) {
	return SolveTrig(common.Cross2(c, u), -common.Cross2(c, v), common.Cross2(u, v))
}

// EllipseLineIntersection finds the parameters where the curve c + u*cos(t) + v*sin(t) meets the
// plane dot(normal, p) = offset.
//
// Parameters:
//   - c: curve center
//   - u: first semi-axis
//   - v: second semi-axis
//   - normal: plane normal (need not be unit length)
//   - offset: plane offset
//
// Returns:
//   - float32, float32: the two curve parameters in radians
//   - bool: false when the curve misses the plane or lies parallel to it
func EllipseLineIntersection(c, u, v, normal mgl32.Vec3, offset float32) (float32, float32, bool) {
	return SolveTrig(normal.Dot(v), normal.Dot(u), offset-normal.Dot(c))
}

// CircleClipPoints returns the points where the circle c + u*cos(t) + v*sin(t) crosses the plane
// z = near.
//
// Parameters:
//   - c: circle center
//   - u: first radius vector
//   - v: second radius vector
//   - near: near plane distance
//
// Returns:
//   - [2]mgl32.Vec3: the crossing points
//   - bool: false when the circle does not cross the plane
func CircleClipPoints(c, u, v mgl32.Vec3, near float32) ([2]mgl32.Vec3, bool) {
	t0, t1, ok := EllipseLineIntersection(c, u, v, mgl32.Vec3{0, 0, 1}, near)
	if !ok {
		return [2]mgl32.Vec3{}, false
	}
	return [2]mgl32.Vec3{ellipsePoint(c, u, v, t0), ellipsePoint(c, u, v, t1)}, true
}

func ellipsePoint(c, u, v mgl32.Vec3, t float32) mgl32.Vec3 {
	s, co := math32.Sincos(t)
	return c.Add(u.Mul(co)).Add(v.Mul(s))
}

// Cone is a spot light volume: the points within Range of Apex whose direction from Apex is
// within Angle of Axis.
type Cone struct {
	Apex  mgl32.Vec3
	Axis  mgl32.Vec3
	Angle float32 // half-angle in radians, below 90 degrees
	Range float32

	cosA, tanA float32
	height     float32 // distance from apex to the base disc along the axis
	base       mgl32.Vec3
	baseRadius float32
	u, v       mgl32.Vec3
}

// NewCone builds a Cone and its derived frame. The axis is normalized.
//
// Parameters:
//   - apex: cone apex
//   - axis: cone axis direction
//   - angle: half-angle in radians, in (0, pi/2)
//   - rng: slant range of the light
//
// Returns:
//   - Cone: the cone
func NewCone(apex, axis mgl32.Vec3, angle, rng float32) Cone {
	axis = axis.Normalize()
	s, c := math32.Sincos(angle)
	cone := Cone{
		Apex:       apex,
		Axis:       axis,
		Angle:      angle,
		Range:      rng,
		cosA:       c,
		tanA:       s / c,
		height:     rng * c,
		base:       apex.Add(axis.Mul(rng * c)),
		baseRadius: rng * s,
	}
	cone.u = perpendicular(axis)
	cone.v = axis.Cross(cone.u)
	return cone
}

// perpendicular returns a unit vector orthogonal to the unit vector d.
func perpendicular(d mgl32.Vec3) mgl32.Vec3 {
	ref := mgl32.Vec3{1, 0, 0}
	if math32.Abs(d[0]) > 0.9 {
		ref = mgl32.Vec3{0, 1, 0}
	}
	return d.Cross(ref).Normalize()
}

// generator returns the unnormalized direction of the cone surface line at angle t in the frame
// (u, v). Its component along the axis is 1.
func (c *Cone) generator(u, v mgl32.Vec3, t float32) mgl32.Vec3 {
	s, co := math32.Sincos(t)
	return c.Axis.Add(u.Mul(c.tanA * co)).Add(v.Mul(c.tanA * s))
}

// Contains reports whether p lies inside the cone, with a small tolerance.
func (c *Cone) Contains(p mgl32.Vec3) bool {
	d := p.Sub(c.Apex)
	l := d.Len()
	if l < common.Epsilon {
		return true
	}
	if l > c.Range*(1+validSlack) {
		return false
	}
	return d.Dot(c.Axis)/l >= c.cosA-validSlack
}

// InCap reports whether p, a point on the cone's bounding sphere, lies on the spherical cap.
func (c *Cone) InCap(p mgl32.Vec3) bool {
	d := p.Sub(c.Apex)
	l := d.Len()
	if l < common.Epsilon {
		return false
	}
	return d.Dot(c.Axis)/l >= c.cosA-validSlack
}

// Rim returns the center and the two radius vectors of the circle where the cone meets its cap.
func (c *Cone) Rim() (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	return c.base, c.u.Mul(c.baseRadius), c.v.Mul(c.baseRadius)
}

// ConeSideTangents returns the silhouette lines of the cone as seen by the camera: the surface
// lines whose tangent plane contains the view ray. Each line runs from the apex to the rim.
// Under perspective the view rays pass through the origin; under orthographic projection they
// are parallel to +z.
//
// Parameters:
//   - c: the cone
//   - orthographic: true for parallel view rays
//
// Returns:
//   - [2][2]mgl32.Vec3: up to two (start, end) segments
//   - int: the number of valid segments
func ConeSideTangents(c *Cone, orthographic bool) ([2][2]mgl32.Vec3, int) {
	var out [2][2]mgl32.Vec3

	var u mgl32.Vec3
	if orthographic {
		u = c.Axis.Cross(mgl32.Vec3{0, 0, 1})
	} else {
		u = c.Axis.Cross(c.Apex)
	}
	ul := u.Len()
	if ul < common.Epsilon {
		return out, 0
	}
	u = u.Mul(1 / ul)
	v := c.Axis.Cross(u)

	var num, den float32
	if orthographic {
		num, den = c.Axis[2], v[2]
	} else {
		num, den = c.Apex.Dot(c.Axis), c.Apex.Dot(v)
	}
	if common.NearZero(den) {
		return out, 0
	}
	s := c.tanA * num / den
	if s > 1 || s < -1 {
		return out, 0
	}
	co := math32.Sqrt(1 - s*s)

	for i, cs := range [2]float32{co, -co} {
		g := c.Axis.Add(u.Mul(c.tanA * cs)).Add(v.Mul(c.tanA * s))
		out[i] = [2]mgl32.Vec3{c.Apex, c.Apex.Add(g.Mul(c.height))}
	}
	return out, 2
}

// NearConicTangentTheta finds the frame angles at which the conic cut from the cone by a plane
// z = const has an extreme coordinate along axis (0 for x, 1 for y). The angles are independent
// of the plane's depth and of the projection.
//
// Parameters:
//   - c: the cone
//   - axis: 0 for x extremes, 1 for y extremes
//
// Returns:
//   - float32, float32: the two frame angles
//   - bool: false when the system is degenerate
func NearConicTangentTheta(c *Cone, axis int) (float32, float32, bool) {
	d, u, v := c.Axis, c.u, c.v
	a := d[axis]*u[2] - d[2]*u[axis]
	b := d[2]*v[axis] - d[axis]*v[2]
	k := c.tanA * (u[axis]*v[2] - v[axis]*u[2])
	return SolveTrig(a, b, k)
}

// NearConicLevelTheta finds the frame angles at which the conic cut from the cone by z = near
// has coordinate axis equal to target.
//
// Parameters:
//   - c: the cone
//   - near: the cutting plane depth
//   - axis: 0 for x, 1 for y
//   - target: the coordinate value to meet
//
// Returns:
//   - float32, float32: the two frame angles
//   - bool: false when the conic never reaches target
func NearConicLevelTheta(c *Cone, near float32, axis int, target float32) (float32, float32, bool) {
	var w mgl32.Vec3
	w[axis] = near - c.Apex[2]
	w[2] = c.Apex[axis] - target
	return SolveTrig(c.tanA*c.v.Dot(w), c.tanA*c.u.Dot(w), -c.Axis.Dot(w))
}

// EvaluateNearConic returns the point where the cone surface line at frame angle t crosses
// z = near.
//
// Parameters:
//   - c: the cone
//   - t: frame angle
//   - near: the cutting plane depth
//
// Returns:
//   - mgl32.Vec3: the crossing point
//   - bool: false when the line is parallel to the plane or crosses it outside the cone
func EvaluateNearConic(c *Cone, t, near float32) (mgl32.Vec3, bool) {
	g := c.generator(c.u, c.v, t)
	if common.NearZero(g[2]) {
		return mgl32.Vec3{}, false
	}
	s := (near - c.Apex[2]) / g[2]
	if s < 0 || s > c.height*(1+validSlack) {
		return mgl32.Vec3{}, false
	}
	return c.Apex.Add(g.Mul(s)), true
}
