package cluster

import (
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Tiling works row by row. The Y range of an item comes from the extreme points of its visible
// volume. The X range of a row is the union of two kinds of contributions:
//   - the volume's section with each of the row's two boundary planes, and
//   - the item's extreme points that fall inside the row.
//
// For a convex volume the extreme column inside a row slab lies either on a boundary plane or at
// a global extreme of the volume, so the union never misses a covered tile.

// tileRanges is one item's slice of the range scratch buffer: slot 0 holds the row range and
// slot 1+row the column range of that row.
type tileRanges struct {
	p     *frameParams
	slots []InclusiveRange
}

func (t *tileRanges) reset() {
	for i := range t.slots {
		t.slots[i] = EmptyRange()
	}
}

// addTile widens the row range to include ty and, when ty is on screen, the column range of
// its row to include tx.
func (t *tileRanges) addTile(tx, ty float32) {
	row := common.FloorToInt(ty)
	t.slots[0].Expand(t.p.clampRow(ty))
	if row >= 0 && row < t.p.tileCountY {
		t.slots[1+row].Expand(t.p.clampColumn(tx))
	}
}

// addPoint adds a view-space point of the item's visible volume.
func (t *tileRanges) addPoint(pt mgl32.Vec3) {
	if !t.p.projectable(pt) {
		return
	}
	t.addTile(t.p.tileX(pt), t.p.tileY(pt))
}

// forEachBoundary calls section for every row boundary of the current row range, including the
// outer two, and merges the returned column range into the rows on both sides.
func (t *tileRanges) forEachBoundary(section func(k int) InclusiveRange) {
	rows := t.slots[0]
	if rows.IsEmpty() {
		return
	}
	for k := int(rows.Start); k <= int(rows.End)+1; k++ {
		xr := section(k)
		if xr.IsEmpty() {
			continue
		}
		if rows.Contains(k - 1) {
			t.slots[k].Merge(xr)
		}
		if rows.Contains(k) {
			t.slots[1+k].Merge(xr)
		}
	}
}

// sectionRange accumulates the column range of points lying on one boundary plane.
type sectionRange struct {
	p *frameParams
	r InclusiveRange
}

func newSectionRange(p *frameParams) sectionRange {
	return sectionRange{p: p, r: EmptyRange()}
}

func (s *sectionRange) add(pt mgl32.Vec3) {
	if s.p.projectable(pt) {
		s.r.Expand(s.p.clampColumn(s.p.tileX(pt)))
	}
}

// projectable reports whether pt can be mapped to tile space.
func (p *frameParams) projectable(pt mgl32.Vec3) bool {
	for _, c := range pt {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return p.orthographic || pt[2] > 0
}

// boundaryPlane returns the plane dot(normal, p) = offset separating rows k-1 and k.
func (p *frameParams) boundaryPlane(k int) (mgl32.Vec3, float32) {
	level := p.rowBoundary(k)
	if p.orthographic {
		return mgl32.Vec3{0, 1, 0}, level
	}
	return mgl32.Vec3{0, 1, -level}, 0
}

// tileItem writes the tile ranges of one item into slots.
func tileItem(p *frameParams, s *itemShape, slots []InclusiveRange) {
	t := tileRanges{p: p, slots: slots}
	t.reset()
	switch s.kind {
	case shapeSphere:
		tileSphere(&t, s.center, s.radius)
	case shapeCone:
		tileCone(&t, &s.cone)
	case shapeBox:
		tileBox(&t, &s.corners)
	}
}

// sphereAxisCandidates lifts the extreme candidates of a sphere along axis (0 for x, 1 for y)
// back into view space. Every returned point lies on the sphere at z >= near.
func sphereAxisCandidates(p *frameParams, c mgl32.Vec3, r float32, axis int) ([4]mgl32.Vec3, int) {
	pts, n := sphereCandidates(mgl32.Vec2{c[axis], c[2]}, r, p.near, ClipRadius(r, p.near-c[2]), p.orthographic)
	var out [4]mgl32.Vec3
	for i, q := range pts[:n] {
		out[i] = c
		out[i][axis] = q[0]
		out[i][2] = q[1]
	}
	return out, n
}

// sphereSection returns the column range of the sphere's section with boundary k, restricted to
// z >= near. When keep is set, only points it accepts contribute.
func sphereSection(p *frameParams, c mgl32.Vec3, r float32, k int, keep func(mgl32.Vec3) bool) InclusiveRange {
	sec := newSectionRange(p)
	level := p.rowBoundary(k)

	if p.orthographic {
		rr := ClipRadius(r, level-c[1])
		if rr < 0 {
			return sec.r
		}
		pts, n := sphereCandidates(mgl32.Vec2{c[0], c[2]}, rr, p.near, ClipRadius(rr, p.near-c[2]), true)
		for _, q := range pts[:n] {
			pt := mgl32.Vec3{q[0], level, q[1]}
			if keep == nil || keep(pt) {
				sec.add(pt)
			}
		}
		return sec.r
	}

	// In-plane coordinates: x along the view x axis, w along (0, s, 1)/|(0, s, 1)|.
	den := math32.Sqrt(1 + level*level)
	rr := ClipRadius(r, (c[1]-level*c[2])/den)
	if rr < 0 {
		return sec.r
	}
	w0 := (level*c[1] + c[2]) / den
	nearW := p.near * den
	pts, n := sphereCandidates(mgl32.Vec2{c[0], w0}, rr, nearW, ClipRadius(rr, nearW-w0), false)
	for _, q := range pts[:n] {
		z := q[1] / den
		pt := mgl32.Vec3{q[0], level * z, z}
		if keep == nil || keep(pt) {
			sec.add(pt)
		}
	}
	return sec.r
}

func tileSphere(t *tileRanges, c mgl32.Vec3, r float32) {
	p := t.p
	for axis := 0; axis < 2; axis++ {
		pts, n := sphereAxisCandidates(p, c, r, axis)
		for _, pt := range pts[:n] {
			t.addPoint(pt)
		}
	}
	t.forEachBoundary(func(k int) InclusiveRange {
		return sphereSection(p, c, r, k, nil)
	})
}

func tileCone(t *tileRanges, c *Cone) {
	p := t.p
	near := p.near

	if c.Apex[2] >= near {
		t.addPoint(c.Apex)
	}

	// Rim circle: horizon points along both axes and its crossings with the near plane.
	base, ru, rv := c.Rim()
	for axis := 0; axis < 2; axis++ {
		var t0, t1 float32
		var ok bool
		if p.orthographic {
			t0, t1, ok = SolveTrig(-ru[axis], rv[axis], 0)
		} else {
			t0, t1, ok = ProjectedCircleHorizon(
				mgl32.Vec2{base[axis], base[2]},
				mgl32.Vec2{ru[axis], ru[2]},
				mgl32.Vec2{rv[axis], rv[2]},
			)
		}
		if !ok {
			continue
		}
		for _, a := range [2]float32{t0, t1} {
			if q := ellipsePoint(base, ru, rv, a); q[2] >= near {
				t.addPoint(q)
			}
		}
	}
	if pts, ok := CircleClipPoints(base, ru, rv, near); ok {
		t.addPoint(pts[0])
		t.addPoint(pts[1])
	}

	// Conic cut by the near plane: its extremes along both axes.
	for axis := 0; axis < 2; axis++ {
		t0, t1, ok := NearConicTangentTheta(c, axis)
		if !ok {
			continue
		}
		for _, a := range [2]float32{t0, t1} {
			if q, ok := EvaluateNearConic(c, a, near); ok {
				t.addPoint(q)
			}
		}
	}

	// Spherical cap: sphere extremes that fall inside the cone.
	for axis := 0; axis < 2; axis++ {
		pts, n := sphereAxisCandidates(p, c.Apex, c.Range, axis)
		for _, pt := range pts[:n] {
			if c.InCap(pt) {
				t.addPoint(pt)
			}
		}
	}

	// Silhouette lines: their rim ends and near-plane crossings.
	segs, nseg := ConeSideTangents(c, p.orthographic)
	for _, seg := range segs[:nseg] {
		a, b := seg[0], seg[1]
		if b[2] >= near {
			t.addPoint(b)
		}
		if (a[2]-near)*(b[2]-near) < 0 {
			u := (near - a[2]) / (b[2] - a[2])
			q := a.Add(b.Sub(a).Mul(u))
			q[2] = near
			t.addPoint(q)
		}
	}

	t.forEachBoundary(func(k int) InclusiveRange {
		sec := newSectionRange(p)
		normal, offset := p.boundaryPlane(k)

		for _, seg := range segs[:nseg] {
			a, b := seg[0], seg[1]
			d := normal.Dot(b.Sub(a))
			if common.NearZero(d) {
				continue
			}
			u := (offset - normal.Dot(a)) / d
			if u < 0 || u > 1 {
				continue
			}
			if q := a.Add(b.Sub(a).Mul(u)); q[2] >= near {
				sec.add(q)
			}
		}

		if t0, t1, ok := EllipseLineIntersection(base, ru, rv, normal, offset); ok {
			for _, a := range [2]float32{t0, t1} {
				if q := ellipsePoint(base, ru, rv, a); q[2] >= near {
					sec.add(q)
				}
			}
		}

		sec.r.Merge(sphereSection(p, c.Apex, c.Range, k, c.InCap))

		target := p.rowBoundary(k)
		if !p.orthographic {
			target *= near
		}
		if t0, t1, ok := NearConicLevelTheta(c, near, 1, target); ok {
			for _, a := range [2]float32{t0, t1} {
				if q, ok := EvaluateNearConic(c, a, near); ok {
					sec.add(q)
				}
			}
		}
		return sec.r
	})
}

func tileBox(t *tileRanges, corners *[8]mgl32.Vec3) {
	p := t.p
	var buf [maxClipPoints]mgl32.Vec2
	hull := NearPlaneBoxClipAndHull(corners, p.near, func(v mgl32.Vec3) mgl32.Vec2 {
		return mgl32.Vec2{p.tileX(v), p.tileY(v)}
	}, &buf)
	if len(hull) == 0 {
		return
	}

	for _, h := range hull {
		t.addTile(h[0], h[1])
	}

	// The hull lives in tile space, so boundary k is the line y = k.
	t.forEachBoundary(func(k int) InclusiveRange {
		xr := EmptyRange()
		y := float32(k)
		for i, a := range hull {
			b := hull[(i+1)%len(hull)]
			if a[1] == b[1] || (a[1]-y)*(b[1]-y) > 0 {
				continue
			}
			x := a[0] + (y-a[1])/(b[1]-a[1])*(b[0]-a[0])
			xr.Expand(p.clampColumn(x))
		}
		return xr
	})
}
