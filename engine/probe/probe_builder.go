package probe

import "github.com/go-gl/mathgl/mgl32"

// ProbeBuilderOption is a function that configures a ReflectionProbe during construction.
type ProbeBuilderOption func(*reflectionProbeImpl)

// WithCenter sets the world-space center of the probe's influence box.
//
// Parameters:
//   - x, y, z: center components
//
// Returns:
//   - ProbeBuilderOption: a function that applies the center option
func WithCenter(x, y, z float32) ProbeBuilderOption {
	return func(p *reflectionProbeImpl) {
		p.center = mgl32.Vec3{x, y, z}
	}
}

// WithExtents sets the half-size of the probe's influence box.
//
// Parameters:
//   - x, y, z: half extents (sign is ignored)
//
// Returns:
//   - ProbeBuilderOption: a function that applies the extents option
func WithExtents(x, y, z float32) ProbeBuilderOption {
	return func(p *reflectionProbeImpl) {
		p.extents = absVec(mgl32.Vec3{x, y, z})
	}
}

// WithBounds sets the influence box from two opposite world-space corners.
//
// Parameters:
//   - lo: one corner
//   - hi: the opposite corner
//
// Returns:
//   - ProbeBuilderOption: a function that applies the bounds option
func WithBounds(lo, hi mgl32.Vec3) ProbeBuilderOption {
	return func(p *reflectionProbeImpl) {
		p.setBounds(lo, hi)
	}
}
