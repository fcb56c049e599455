package cluster

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const geomTol = 1e-4

func approx(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}

// =============================================================================
// Trigonometric and circle helpers
// =============================================================================

func TestSolveTrig(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c float32
		ok      bool
	}{
		{"sin only", 1, 0, 0.5, true},
		{"cos only", 0, 2, -1, true},
		{"mixed", 3, 4, 2, true},
		{"tangent", 3, 4, 5, true},
		{"out of reach", 1, 0, 2, false},
		{"degenerate", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t0, t1, ok := SolveTrig(tt.a, tt.b, tt.c)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			for _, x := range []float32{t0, t1} {
				got := tt.a*math32.Sin(x) + tt.b*math32.Cos(x)
				if !approx(got, tt.c, geomTol) {
					t.Errorf("a*sin(%v) + b*cos(%v) = %v, want %v", x, x, got, tt.c)
				}
			}
		})
	}
}

func TestClipRadius(t *testing.T) {
	if got := ClipRadius(5, 3); !approx(got, 4, geomTol) {
		t.Errorf("ClipRadius(5, 3) = %v, want 4", got)
	}
	if got := ClipRadius(5, -3); !approx(got, 4, geomTol) {
		t.Errorf("ClipRadius(5, -3) = %v, want 4", got)
	}
	if got := ClipRadius(5, 6); got >= 0 {
		t.Errorf("ClipRadius(5, 6) = %v, want negative", got)
	}
}

func TestSphereHorizon_Tangents(t *testing.T) {
	center := mgl32.Vec2{0, 10}
	lo, hi, ok := SphereHorizon(center, 5, 1, ClipRadius(5, 1-center[1]))
	if !ok {
		t.Fatal("SphereHorizon returned ok=false")
	}
	want := math32.Tan(math32.Asin(0.5))
	if s := lo[0] / lo[1]; !approx(s, -want, geomTol) {
		t.Errorf("low slope = %v, want %v", s, -want)
	}
	if s := hi[0] / hi[1]; !approx(s, want, geomTol) {
		t.Errorf("high slope = %v, want %v", s, want)
	}
	for _, p := range []mgl32.Vec2{lo, hi} {
		if d := p.Sub(center).Len(); !approx(d, 5, geomTol) {
			t.Errorf("tangent point %v is %v from the center, want 5", p, d)
		}
	}
}

func TestSphereHorizon_NearChord(t *testing.T) {
	// The origin is inside the disc, so only the near chord bounds the slopes.
	center := mgl32.Vec2{0, 2}
	clip := ClipRadius(3, 1-center[1])
	lo, hi, ok := SphereHorizon(center, 3, 1, clip)
	if !ok {
		t.Fatal("SphereHorizon returned ok=false")
	}
	if lo != (mgl32.Vec2{-clip, 1}) || hi != (mgl32.Vec2{clip, 1}) {
		t.Errorf("SphereHorizon = %v, %v; want chord ends at +-%v", lo, hi, clip)
	}
}

func TestSphereHorizon_BehindNear(t *testing.T) {
	if _, _, ok := SphereHorizon(mgl32.Vec2{0, -10}, 2, 0.1, -1); ok {
		t.Error("disc behind the near plane should report ok=false")
	}
}

func TestSphereExtentOrtho(t *testing.T) {
	tests := []struct {
		name   string
		center mgl32.Vec2
		near   float32
		lo, hi mgl32.Vec2
	}{
		{"in front", mgl32.Vec2{1, 5}, 0, mgl32.Vec2{-1, 5}, mgl32.Vec2{3, 5}},
		{"center behind near", mgl32.Vec2{1, 5}, 6, mgl32.Vec2{1 - math32.Sqrt(3), 6}, mgl32.Vec2{1 + math32.Sqrt(3), 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, ok := SphereExtentOrtho(tt.center, 2, tt.near, ClipRadius(2, tt.near-tt.center[1]))
			if !ok {
				t.Fatal("ok = false")
			}
			if !lo.ApproxEqualThreshold(tt.lo, geomTol) || !hi.ApproxEqualThreshold(tt.hi, geomTol) {
				t.Errorf("extent = %v, %v; want %v, %v", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestProjectedCircleHorizon_GrazesOrigin(t *testing.T) {
	c := mgl32.Vec2{2, 10}
	u := mgl32.Vec2{3, 1}
	v := mgl32.Vec2{-1, 2}
	t0, t1, ok := ProjectedCircleHorizon(c, u, v)
	if !ok {
		t.Fatal("ok = false")
	}
	for _, a := range []float32{t0, t1} {
		s, co := math32.Sincos(a)
		p := c.Add(u.Mul(co)).Add(v.Mul(s))
		dp := v.Mul(co).Sub(u.Mul(s))
		// The ray from the origin is tangent to the curve at p.
		cross := p[0]*dp[1] - p[1]*dp[0]
		if !approx(cross/(p.Len()*dp.Len()), 0, geomTol) {
			t.Errorf("t=%v: ray is not tangent, normalized cross = %v", a, cross/(p.Len()*dp.Len()))
		}
	}
}

func TestProjectedCircleHorizon_OriginInside(t *testing.T) {
	if _, _, ok := ProjectedCircleHorizon(mgl32.Vec2{0, 1}, mgl32.Vec2{3, 0}, mgl32.Vec2{0, 3}); ok {
		t.Error("origin inside the curve should report ok=false")
	}
}

func TestEllipseLineIntersection(t *testing.T) {
	c := mgl32.Vec3{0, 0, 5}
	u := mgl32.Vec3{2, 0, 0}
	v := mgl32.Vec3{0, 2, 1}
	normal := mgl32.Vec3{1, 1, 0}
	t0, t1, ok := EllipseLineIntersection(c, u, v, normal, 1)
	if !ok {
		t.Fatal("ok = false")
	}
	for _, a := range []float32{t0, t1} {
		if d := normal.Dot(ellipsePoint(c, u, v, a)); !approx(d, 1, geomTol) {
			t.Errorf("t=%v: dot(normal, p) = %v, want 1", a, d)
		}
	}
	if _, _, ok := EllipseLineIntersection(c, u, v, mgl32.Vec3{1, 0, 0}, 5); ok {
		t.Error("plane beyond the ellipse should report ok=false")
	}
}

func TestCircleClipPoints(t *testing.T) {
	pts, ok := CircleClipPoints(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 2}, mgl32.Vec3{2, 0, 0}, 2)
	if !ok {
		t.Fatal("ok = false")
	}
	for _, p := range pts {
		if !approx(p[2], 2, geomTol) {
			t.Errorf("crossing %v is not on z=2", p)
		}
	}
	if _, ok := CircleClipPoints(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, 2); ok {
		t.Error("circle parallel to the plane should not cross it")
	}
}

// =============================================================================
// Cone
// =============================================================================

func TestCone_ContainsAndCap(t *testing.T) {
	c := NewCone(mgl32.Vec3{}, mgl32.Vec3{0, 0, 2}, mgl32.DegToRad(30), 10)

	contains := []struct {
		p    mgl32.Vec3
		want bool
	}{
		{mgl32.Vec3{0, 0, 5}, true},
		{mgl32.Vec3{0, 2, 5}, true},
		{mgl32.Vec3{0, 5, 5}, false},
		{mgl32.Vec3{0, 0, 11}, false},
		{mgl32.Vec3{0, 0, -1}, false},
	}
	for _, tt := range contains {
		if got := c.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if !c.InCap(mgl32.Vec3{0, 0, 10}) {
		t.Error("InCap(axis point) = false")
	}
	if c.InCap(mgl32.Vec3{10, 0, 0}) {
		t.Error("InCap(side point) = true")
	}

	base, ru, rv := c.Rim()
	if !base.ApproxEqualThreshold(mgl32.Vec3{0, 0, 10 * math32.Cos(mgl32.DegToRad(30))}, geomTol) {
		t.Errorf("rim center = %v", base)
	}
	if !approx(ru.Len(), 5, geomTol) || !approx(rv.Len(), 5, geomTol) || !approx(ru.Dot(rv), 0, geomTol) {
		t.Errorf("rim radius vectors %v, %v are not orthogonal with length 5", ru, rv)
	}
}

func TestConeSideTangents_Silhouette(t *testing.T) {
	tests := []struct {
		name         string
		orthographic bool
	}{
		{"perspective", false},
		{"orthographic", true},
	}
	c := NewCone(mgl32.Vec3{0, 1, 5}, mgl32.Vec3{1, 0, 0.3}, mgl32.DegToRad(30), 4)
	base, ru, rv := c.Rim()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, n := ConeSideTangents(&c, tt.orthographic)
			if n != 2 {
				t.Fatalf("n = %d, want 2", n)
			}
			for _, seg := range segs[:n] {
				d := seg[1].Sub(seg[0])
				if !approx(d.Len(), c.Range, 1e-3) {
					t.Errorf("segment length = %v, want %v", d.Len(), c.Range)
				}
				if ang := math32.Acos(d.Normalize().Dot(c.Axis)); !approx(ang, c.Angle, 1e-3) {
					t.Errorf("segment angle = %v, want %v", ang, c.Angle)
				}

				// The plane through the view ray and the segment supports the cone.
				var normal mgl32.Vec3
				if tt.orthographic {
					normal = d.Cross(mgl32.Vec3{0, 0, 1})
				} else {
					normal = seg[0].Cross(seg[1])
				}
				normal = normal.Normalize()
				offset := normal.Dot(seg[0])
				lo, hi := float32(0), float32(0)
				for i := range 64 {
					a := float32(i) / 64 * 2 * math32.Pi
					dist := normal.Dot(ellipsePoint(base, ru, rv, a)) - offset
					lo, hi = min(lo, dist), max(hi, dist)
				}
				if lo < -1e-3 && hi > 1e-3 {
					t.Errorf("rim lies on both sides of the silhouette plane: [%v, %v]", lo, hi)
				}
			}
		})
	}
}

func TestNearConic_Extremes(t *testing.T) {
	tests := []struct {
		name string
		axis mgl32.Vec3
	}{
		{"straight", mgl32.Vec3{0, 0, 1}},
		{"tilted", mgl32.Vec3{0.3, -0.2, 1}},
	}
	const near = 1
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCone(mgl32.Vec3{0.2, 0.1, -1}, tt.axis, mgl32.DegToRad(30), 10)
			for axis := 0; axis < 2; axis++ {
				t0, t1, ok := NearConicTangentTheta(&c, axis)
				if !ok {
					t.Fatalf("axis %d: ok = false", axis)
				}
				p0, ok0 := EvaluateNearConic(&c, t0, near)
				p1, ok1 := EvaluateNearConic(&c, t1, near)
				if !ok0 || !ok1 {
					t.Fatalf("axis %d: evaluate failed", axis)
				}
				lo, hi := min(p0[axis], p1[axis]), max(p0[axis], p1[axis])

				bruteLo, bruteHi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
				for i := range 720 {
					p, ok := EvaluateNearConic(&c, float32(i)/720*2*math32.Pi, near)
					if !ok {
						continue
					}
					if !approx(p[2], near, geomTol) {
						t.Fatalf("conic point %v is not on the near plane", p)
					}
					bruteLo, bruteHi = min(bruteLo, p[axis]), max(bruteHi, p[axis])
				}
				if !approx(lo, bruteLo, 1e-3) || !approx(hi, bruteHi, 1e-3) {
					t.Errorf("axis %d: extremes [%v, %v], sampled [%v, %v]", axis, lo, hi, bruteLo, bruteHi)
				}
			}
		})
	}
}

func TestNearConicLevelTheta(t *testing.T) {
	c := NewCone(mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0.2, 0, 1}, mgl32.DegToRad(25), 10)
	const near, target = 1, 0.4
	t0, t1, ok := NearConicLevelTheta(&c, near, 1, target)
	if !ok {
		t.Fatal("ok = false")
	}
	for _, a := range []float32{t0, t1} {
		p, ok := EvaluateNearConic(&c, a, near)
		if !ok {
			t.Fatalf("t=%v: evaluate failed", a)
		}
		if !approx(p[1], target, geomTol) {
			t.Errorf("t=%v: y = %v, want %v", a, p[1], target)
		}
	}
	if _, _, ok := NearConicLevelTheta(&c, near, 1, 50); ok {
		t.Error("target outside the conic should report ok=false")
	}
}

// =============================================================================
// Depth bounds
// =============================================================================

func TestSphereDepth(t *testing.T) {
	lo, hi := SphereDepth(mgl32.Vec3{1, 2, 10}, 2)
	if lo != 8 || hi != 12 {
		t.Errorf("SphereDepth = [%v, %v], want [8, 12]", lo, hi)
	}
}

func TestConeDepth(t *testing.T) {
	tests := []struct {
		name   string
		axis   mgl32.Vec3
		lo, hi float32
	}{
		{"facing away", mgl32.Vec3{0, 0, 1}, 0, 10},
		{"facing camera", mgl32.Vec3{0, 0, -1}, -10, 0},
		{"sideways", mgl32.Vec3{1, 0, 0}, -5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCone(mgl32.Vec3{}, tt.axis, mgl32.DegToRad(30), 10)
			lo, hi := ConeDepth(&c)
			if !approx(lo, tt.lo, geomTol) || !approx(hi, tt.hi, geomTol) {
				t.Errorf("ConeDepth = [%v, %v], want [%v, %v]", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestConeDepth_BoundsSamples(t *testing.T) {
	c := NewCone(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0.4, -0.3, 0.8}, mgl32.DegToRad(40), 6)
	lo, hi := ConeDepth(&c)
	for i := range 32 {
		for j := range 16 {
			a := float32(i) / 32 * 2 * math32.Pi
			f := float32(j+1) / 16
			g := c.generator(c.u, c.v, a).Normalize()
			p := c.Apex.Add(g.Mul(c.Range * f))
			if p[2] < lo-geomTol || p[2] > hi+geomTol {
				t.Fatalf("point %v outside depth bounds [%v, %v]", p, lo, hi)
			}
		}
	}
}

func TestBoxDepth(t *testing.T) {
	var corners [8]mgl32.Vec3
	for i := range corners {
		corners[i] = mgl32.Vec3{0, 0, float32(i) - 2}
	}
	lo, hi := BoxDepth(&corners)
	if lo != -2 || hi != 5 {
		t.Errorf("BoxDepth = [%v, %v], want [-2, 5]", lo, hi)
	}
}

// =============================================================================
// Box clipping and hull
// =============================================================================

func boxCorners(lo, hi mgl32.Vec3) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := range out {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				out[i][axis] = hi[axis]
			} else {
				out[i][axis] = lo[axis]
			}
		}
	}
	return out
}

func TestClipBoxToNear(t *testing.T) {
	tests := []struct {
		name string
		near float32
		want int
	}{
		{"all in front", -1, 8},
		{"straddling", 1, 8},
		{"all behind", 3, 0},
	}
	corners := boxCorners(mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, 1, 2})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst [maxClipPoints]mgl32.Vec3
			pts := ClipBoxToNear(&corners, tt.near, &dst)
			if len(pts) != tt.want {
				t.Fatalf("len = %d, want %d", len(pts), tt.want)
			}
			for _, p := range pts {
				if p[2] < tt.near {
					t.Errorf("point %v lies behind the near plane", p)
				}
			}
		})
	}
}

func TestConvexHull(t *testing.T) {
	points := []mgl32.Vec2{{1, 1}, {0, 0}, {2, 0}, {1, 0}, {2, 2}, {0, 2}, {0.5, 1.5}, {0, 1}}
	dst := make([]mgl32.Vec2, len(points))
	hull := ConvexHull(points, dst)
	if len(hull) != 4 {
		t.Fatalf("hull = %v, want the 4 square corners", hull)
	}
	var area float32
	for i, a := range hull {
		b := hull[(i+1)%len(hull)]
		area += a[0]*b[1] - b[0]*a[1]
	}
	if !approx(area/2, 4, geomTol) {
		t.Errorf("signed area = %v, want 4 (counter-clockwise)", area/2)
	}
}

func TestConvexHull_Degenerate(t *testing.T) {
	dst := make([]mgl32.Vec2, 4)
	if got := ConvexHull(nil, dst); len(got) != 0 {
		t.Errorf("hull of no points = %v", got)
	}
	if got := ConvexHull([]mgl32.Vec2{{1, 1}, {1, 1}}, dst); len(got) != 1 {
		t.Errorf("hull of one repeated point = %v, want 1 point", got)
	}
}

func TestNearPlaneBoxClipAndHull(t *testing.T) {
	corners := boxCorners(mgl32.Vec3{-1, -1, -2}, mgl32.Vec3{1, 1, 4})
	var dst [maxClipPoints]mgl32.Vec2
	hull := NearPlaneBoxClipAndHull(&corners, 1, func(p mgl32.Vec3) mgl32.Vec2 {
		return mgl32.Vec2{p[0] / p[2], p[1] / p[2]}
	}, &dst)
	if len(hull) != 4 {
		t.Fatalf("hull = %v, want 4 points", hull)
	}
	for _, h := range hull {
		if !approx(math32.Abs(h[0]), 1, geomTol) || !approx(math32.Abs(h[1]), 1, geomTol) {
			t.Errorf("hull point %v, want the projected near face corners", h)
		}
	}
}
