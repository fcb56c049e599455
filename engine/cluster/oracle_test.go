package cluster

import (
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/probe"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Brute-force oracle: points sampled strictly inside every item's volume must land in a tile and
// a Z-bin whose bitmask contains the item.

// oracleShrink scales ranges, angles and extents of the sampled volumes so samples keep a margin
// from the true surface.
const oracleShrink = 0.97

type testScene struct {
	name   string
	cam    camera.Camera
	lights []light.Light
	probes []probe.ReflectionProbe
	width  int
	height int
}

func randIn(r *rand.Rand, lo, hi float32) float32 {
	return lo + r.Float32()*(hi-lo)
}

func randVec(r *rand.Rand, lo, hi mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{randIn(r, lo[0], hi[0]), randIn(r, lo[1], hi[1]), randIn(r, lo[2], hi[2])}
}

func randDir(r *rand.Rand) mgl32.Vec3 {
	for {
		d := randVec(r, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
		if l := d.Len(); l > 0.1 && l <= 1 {
			return d.Mul(1 / l)
		}
	}
}

// randomItems builds lights and probes scattered around origin, including some that contain
// it. Every fifth light is a point light, a few are disabled or directional.
func randomItems(r *rand.Rand, origin mgl32.Vec3, lightCount, probeCount int) ([]light.Light, []probe.ReflectionProbe) {
	lo := origin.Add(mgl32.Vec3{-20, -12, -45})
	hi := origin.Add(mgl32.Vec3{20, 12, 12})

	lights := make([]light.Light, 0, lightCount)
	for i := range lightCount {
		pos := randVec(r, lo, hi)
		if i%7 == 0 {
			pos = origin.Add(randVec(r, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}))
		}
		opts := []light.LightBuilderOption{
			light.WithPosition(pos[0], pos[1], pos[2]),
			light.WithRange(randIn(r, 0.5, 9)),
		}
		kind := light.LightTypeSpot
		switch {
		case i%5 == 0:
			kind = light.LightTypePoint
		case i == 11:
			kind = light.LightTypeDirectional
		case i == 13:
			opts = append(opts, light.WithEnabled(false))
		}
		if kind == light.LightTypeSpot {
			d := randDir(r)
			outer := randIn(r, 5, 85)
			if i%9 == 4 {
				outer = randIn(r, 89, 120)
			}
			opts = append(opts, light.WithDirection(d[0], d[1], d[2]), light.WithSpotCone(outer*0.8, outer))
		}
		lights = append(lights, light.NewLight(kind, opts...))
	}

	probes := make([]probe.ReflectionProbe, 0, probeCount)
	for i := range probeCount {
		c := randVec(r, lo, hi)
		if i%5 == 0 {
			c = origin.Add(randVec(r, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}))
		}
		e := randVec(r, mgl32.Vec3{0.3, 0.3, 0.3}, mgl32.Vec3{5, 5, 5})
		probes = append(probes, probe.NewReflectionProbe(probe.WithCenter(c[0], c[1], c[2]), probe.WithExtents(e[0], e[1], e[2])))
	}
	return lights, probes
}

// sampleLight returns a world-space point strictly inside the shrunk volume of l.
func sampleLight(r *rand.Rand, l light.Light) (mgl32.Vec3, bool) {
	rng := l.Range() * oracleShrink
	cone := l.Type() == light.LightTypeSpot && l.SpotAngle() < math32.Pi/2 && l.Direction().Len() > 0
	cosLimit := math32.Cos(l.SpotAngle() * oracleShrink)
	for range 256 {
		d := randVec(r, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
		n := d.Len()
		if n > 1 || n < 0.05 {
			continue
		}
		if cone && d.Mul(1/n).Dot(l.Direction()) < cosLimit {
			continue
		}
		return l.Position().Add(d.Mul(rng)), true
	}
	return mgl32.Vec3{}, false
}

// sampleProbe returns a world-space point strictly inside the shrunk box of p.
func sampleProbe(r *rand.Rand, p probe.ReflectionProbe) mgl32.Vec3 {
	e := p.Extents().Mul(oracleShrink)
	return p.Center().Add(randVec(r, e.Mul(-1), e))
}

// lit reports whether item i can receive samples at all.
func lit(l light.Light) bool {
	if l == nil || !l.Enabled() {
		return false
	}
	return l.Type() == light.LightTypePoint || l.Type() == light.LightTypeSpot
}

// checkSoundness samples every item of the culler's current frame and reports samples whose tile
// or Z-bin does not list the item. The culler's jobs must be complete.
func checkSoundness(t *testing.T, c *cullerImpl, lights []light.Light, probes []probe.ReflectionProbe, r *rand.Rand, samples int) {
	t.Helper()
	p := c.params
	wpt := p.wordsPerTile
	stride := p.zBinStride()
	failures := 0

	check := func(item int, world mgl32.Vec3) {
		v := common.TransformPoint(p.view, world)
		if p.orthographic {
			if v[2] < p.near+1e-3 || v[2] > p.far-1e-3 {
				return
			}
		} else if v[2] < p.near*1.001 || v[2] > p.far*0.999 {
			return
		}
		tx, ty := p.tileX(v), p.tileY(v)
		if !(tx >= 0 && ty >= 0 && tx < p.tileScaleX && ty < p.tileScaleY) {
			return
		}
		col, row := int(tx), int(ty)
		tile := (row*p.tileCountX + col) * wpt
		if !common.Bitset32(c.masks[tile : tile+wpt]).Test(item) {
			failures++
			if failures <= 10 {
				t.Errorf("item %d: view point %v in tile (%d, %d) is not in the tile mask", item, v, col, row)
			}
		}
		if p.binCount == 0 {
			return
		}
		bin := common.Clamp(p.binIndex(v[2]), 0, p.binCount-1)
		off := bin*stride + ZBinHeaderWords
		if !common.Bitset32(c.zbins[off : off+wpt]).Test(item) {
			failures++
			if failures <= 10 {
				t.Errorf("item %d: view depth %v in bin %d is not in the bin mask", item, v[2], bin)
			}
		}
	}

	for i := 0; i < p.lightCount; i++ {
		if !lit(lights[i]) {
			continue
		}
		for range samples {
			if w, ok := sampleLight(r, lights[i]); ok {
				check(i, w)
			}
		}
	}
	for i := 0; i < p.probeCount; i++ {
		for range samples {
			check(p.lightCount+i, sampleProbe(r, probes[i]))
		}
	}
	if failures > 10 {
		t.Errorf("%d more failures", failures-10)
	}
}

// itemTiles returns the tiles whose mask contains item.
func itemTiles(c *cullerImpl, item int) [][2]int {
	p := c.params
	var out [][2]int
	for row := 0; row < p.tileCountY; row++ {
		for col := 0; col < p.tileCountX; col++ {
			tile := (row*p.tileCountX + col) * p.wordsPerTile
			if common.Bitset32(c.masks[tile : tile+p.wordsPerTile]).Test(item) {
				out = append(out, [2]int{col, row})
			}
		}
	}
	return out
}

// itemBins returns the Z-bins whose mask contains item.
func itemBins(c *cullerImpl, item int) []int {
	p := c.params
	stride := p.zBinStride()
	var out []int
	for b := 0; b < p.binCount; b++ {
		off := b*stride + ZBinHeaderWords
		if common.Bitset32(c.zbins[off : off+p.wordsPerTile]).Test(item) {
			out = append(out, b)
		}
	}
	return out
}
