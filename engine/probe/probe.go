package probe

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// reflectionProbeImpl is the implementation of the ReflectionProbe interface.
type reflectionProbeImpl struct {
	mu *sync.Mutex

	center  mgl32.Vec3
	extents mgl32.Vec3
}

// ReflectionProbe defines the interface for a box-shaped reflection probe handed to the
// cluster culler. A probe influences every fragment inside its world-space axis-aligned box.
type ReflectionProbe interface {
	// Center returns the world-space center of the influence box.
	//
	// Returns:
	//   - mgl32.Vec3: the box center
	Center() mgl32.Vec3

	// Extents returns the half-size of the influence box along each axis.
	//
	// Returns:
	//   - mgl32.Vec3: non-negative half extents
	Extents() mgl32.Vec3

	// Bounds returns the minimum and maximum corners of the influence box.
	//
	// Returns:
	//   - mgl32.Vec3: minimum corner
	//   - mgl32.Vec3: maximum corner
	Bounds() (mgl32.Vec3, mgl32.Vec3)

	// Corners returns the eight corners of the influence box. Bit 0 of the index selects the
	// max x, bit 1 the max y and bit 2 the max z.
	//
	// Returns:
	//   - [8]mgl32.Vec3: the box corners
	Corners() [8]mgl32.Vec3

	// SetCenter moves the influence box.
	//
	// Parameters:
	//   - x, y, z: world-space center
	SetCenter(x, y, z float32)

	// SetExtents resizes the influence box. Negative components are made positive.
	//
	// Parameters:
	//   - x, y, z: half extents
	SetExtents(x, y, z float32)

	// SetBounds sets the influence box from two opposite corners given in any order.
	//
	// Parameters:
	//   - lo: one corner
	//   - hi: the opposite corner
	SetBounds(lo, hi mgl32.Vec3)
}

var _ ReflectionProbe = &reflectionProbeImpl{}

// NewReflectionProbe creates a probe centered at the origin with unit extents and applies any
// provided options.
//
// Parameters:
//   - opts: variadic list of ProbeBuilderOption functions to configure the probe
//
// Returns:
//   - ReflectionProbe: a new probe instance
func NewReflectionProbe(opts ...ProbeBuilderOption) ReflectionProbe {
	p := &reflectionProbeImpl{
		mu:      &sync.Mutex{},
		extents: mgl32.Vec3{1, 1, 1},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *reflectionProbeImpl) Center() mgl32.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.center
}

func (p *reflectionProbeImpl) Extents() mgl32.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extents
}

func (p *reflectionProbeImpl) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.center.Sub(p.extents), p.center.Add(p.extents)
}

func (p *reflectionProbeImpl) Corners() [8]mgl32.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out [8]mgl32.Vec3
	for i := range out {
		c := p.center
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[axis] += p.extents[axis]
			} else {
				c[axis] -= p.extents[axis]
			}
		}
		out[i] = c
	}
	return out
}

func (p *reflectionProbeImpl) SetCenter(x, y, z float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.center = mgl32.Vec3{x, y, z}
}

func (p *reflectionProbeImpl) SetExtents(x, y, z float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extents = absVec(mgl32.Vec3{x, y, z})
}

func (p *reflectionProbeImpl) SetBounds(lo, hi mgl32.Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setBounds(lo, hi)
}

func (p *reflectionProbeImpl) setBounds(lo, hi mgl32.Vec3) {
	p.center = lo.Add(hi).Mul(0.5)
	p.extents = absVec(hi.Sub(lo).Mul(0.5))
}

func absVec(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		if v[i] < 0 {
			v[i] = -v[i]
		}
	}
	return v
}
