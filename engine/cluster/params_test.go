package cluster

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestTileCounts(t *testing.T) {
	tests := []struct {
		w, h, tile int
		cx, cy     int
	}{
		{1920, 1080, 16, 120, 68},
		{1920, 1080, 8, 240, 135},
		{1, 1, 8, 1, 1},
		{0, 0, 8, 1, 1},
		{17, 9, 8, 3, 2},
	}
	for _, tt := range tests {
		cx, cy := TileCounts(tt.w, tt.h, tt.tile)
		if cx != tt.cx || cy != tt.cy {
			t.Errorf("TileCounts(%d, %d, %d) = (%d, %d), want (%d, %d)", tt.w, tt.h, tt.tile, cx, cy, tt.cx, tt.cy)
		}
	}
}

func TestChooseTileWidth(t *testing.T) {
	tests := []struct {
		name          string
		w, h, wpt     int
		wantTileWidth int
	}{
		{"1080p one word", 1920, 1080, 1, 16},
		{"1080p ten words", 1920, 1080, 10, 64},
		{"tiny screen", 4, 4, 1, 8},
		{"8k ten words", 7680, 4320, 10, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw, cx, cy := chooseTileWidth(tt.w, tt.h, tt.wpt, DefaultMinTileWidth, DefaultMaxTileWords)
			if tw != tt.wantTileWidth {
				t.Errorf("tile width = %d, want %d", tw, tt.wantTileWidth)
			}
			if cx*cy*tt.wpt > DefaultMaxTileWords {
				t.Errorf("%d x %d tiles of %d words exceed the budget", cx, cy, tt.wpt)
			}
		})
	}
}

func TestChooseTileWidth_SingleTileFallback(t *testing.T) {
	// One tile does not fit, so the loop stops at a 1x1 grid.
	tw, cx, cy := chooseTileWidth(100, 100, 8, 8, 4)
	if cx != 1 || cy != 1 {
		t.Fatalf("grid = %dx%d, want 1x1", cx, cy)
	}
	if tw < 100 {
		t.Errorf("tile width = %d, want at least 100", tw)
	}
}

func TestZBinParams(t *testing.T) {
	tests := []struct {
		name         string
		near, far    float32
		orthographic bool
		wpt          int
		wantCount    int
	}{
		{"perspective", 0.1, 100, false, 1, 1365},
		{"orthographic", 0, 50, true, 1, 1365},
		{"wide tiles", 0.1, 100, false, 10, 341},
		{"infinite far", 0.1, math32.Inf(1), false, 1, 0},
		{"inverted planes", 10, 1, false, 1, 0},
		{"zero near", 0, 100, false, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, offset, count := zBinParams(tt.near, tt.far, tt.orthographic, tt.wpt, DefaultMaxZBinWords)
			if count != tt.wantCount {
				t.Fatalf("count = %d, want %d", count, tt.wantCount)
			}
			if count*(ZBinHeaderWords+tt.wpt) > DefaultMaxZBinWords {
				t.Errorf("%d bins exceed the budget", count)
			}
			if count == 0 {
				return
			}
			p := frameParams{orthographic: tt.orthographic, zBinScale: scale, zBinOffset: offset}
			if b := p.binIndex(tt.near*1.001 + 1e-4); b != 0 {
				t.Errorf("binIndex(near) = %d, want 0", b)
			}
			if b := p.binIndex(tt.far * 0.999); b < count-2 || b > count {
				t.Errorf("binIndex(far) = %d, want about %d", b, count)
			}
		})
	}
}

func TestBinIndex_Monotonic(t *testing.T) {
	for _, orthographic := range []bool{false, true} {
		scale, offset, count := zBinParams(0.1, 100, orthographic, 1, DefaultMaxZBinWords)
		p := frameParams{orthographic: orthographic, zBinScale: scale, zBinOffset: offset, binCount: count}
		prev := p.binIndex(0.1)
		for z := float32(0.1); z < 100; z *= 1.01 {
			b := p.binIndex(z)
			if b < prev {
				t.Fatalf("orthographic=%v: binIndex(%v) = %d after %d", orthographic, z, b, prev)
			}
			prev = b
		}
	}
}

func TestViewBounds(t *testing.T) {
	left, right, bottom, top := viewBounds(mgl32.Perspective(mgl32.DegToRad(90), 2, 0.1, 100), false)
	if !approx(left, -2, geomTol) || !approx(right, 2, geomTol) || !approx(bottom, -1, geomTol) || !approx(top, 1, geomTol) {
		t.Errorf("perspective bounds = (%v, %v, %v, %v), want (-2, 2, -1, 1)", left, right, bottom, top)
	}

	left, right, bottom, top = viewBounds(mgl32.Ortho(-4, 6, -2, 3, 0.1, 100), true)
	if !approx(left, -4, geomTol) || !approx(right, 6, geomTol) || !approx(bottom, -2, geomTol) || !approx(top, 3, geomTol) {
		t.Errorf("orthographic bounds = (%v, %v, %v, %v), want (-4, 6, -2, 3)", left, right, bottom, top)
	}
}

func TestFrameParams_TileMapping(t *testing.T) {
	cfg := defaultConfig()
	proj := mgl32.Perspective(mgl32.DegToRad(90), 2, 0.1, 100)
	p := newFrameParams(&cfg, mgl32.Ident4(), proj, 0.1, 100, false, 640, 320, 1, 0)

	if p.tileWidth != 8 || p.tileCountX != 80 || p.tileCountY != 40 {
		t.Fatalf("tiles = %d px, %dx%d; want 8 px, 80x40", p.tileWidth, p.tileCountX, p.tileCountY)
	}
	// The camera looks down -z; cluster view space looks down +z.
	v := p.view.Mul4x1(mgl32.Vec4{0, 0, -5, 1}).Vec3()
	if !v.ApproxEqualThreshold(mgl32.Vec3{0, 0, 5}, geomTol) {
		t.Fatalf("view point = %v, want (0, 0, 5)", v)
	}
	if tx, ty := p.tileX(v), p.tileY(v); !approx(tx, 40, geomTol) || !approx(ty, 20, geomTol) {
		t.Errorf("screen center maps to (%v, %v), want (40, 20)", tx, ty)
	}
	// Bottom-left screen corner: slopes (-2, -1).
	corner := mgl32.Vec3{-10, -5, 5}
	if tx, ty := p.tileX(corner), p.tileY(corner); !approx(tx, 0, geomTol) || !approx(ty, 0, geomTol) {
		t.Errorf("bottom-left corner maps to (%v, %v), want (0, 0)", tx, ty)
	}
	if got := p.rowBoundary(20); !approx(got, 0, geomTol) {
		t.Errorf("rowBoundary(20) = %v, want 0", got)
	}
	if p.rangesPerItem%rangeStride != 0 || p.rangesPerItem < 1+p.tileCountY {
		t.Errorf("rangesPerItem = %d", p.rangesPerItem)
	}
}
