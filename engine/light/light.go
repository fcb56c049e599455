package light

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Directional lights affect every fragment and are shaded outside the clustered set, so the
	// culler assigns them an empty range.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Its influence is bounded by a sphere of radius Range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Its influence is bounded by the cone of half-angle SpotAngle capped by a sphere of radius Range.
	LightTypeSpot
)

// String returns a human-readable name for the light type.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

const (
	// MinSpotAngle is the smallest outer half-angle, in degrees, a spot light may have.
	// Narrower cones are widened to it so the cone's tangent frame never degenerates.
	MinSpotAngle float32 = 0.5

	// MaxSpotAngle is the largest outer half-angle, in degrees, a spot light may have.
	MaxSpotAngle float32 = 179.0

	// SphereSpotAngle is the outer half-angle, in degrees, at and above which a spot light is
	// bounded as a point light.
	SphereSpotAngle float32 = 89.0
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType  LightType
	position   mgl32.Vec3
	direction  mgl32.Vec3
	lightRange float32
	innerCone  float32 // stored as cos(angle in radians)
	outerCone  float32 // stored as cos(angle in radians)
	spotAngle  float32 // outer half-angle in radians
	enabled    bool
}

// Light defines the interface for a light source handed to the cluster culler.
//
// All light types share this interface; type-specific properties (e.g. cone angles for spot
// lights) return their defaults when not applicable. Positions and directions are in world
// space; the culler moves them into view space each frame.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Direction returns the normalized direction of the light.
	// For spot lights this is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: normalized direction as (x, y, z)
	Direction() mgl32.Vec3

	// Range returns the maximum attenuation distance for point and spot lights.
	// Beyond this distance the light contributes zero energy.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	// Fragments outside this angle receive zero intensity.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// SpotAngle returns the outer cone half-angle in radians, clamped to
	// [MinSpotAngle, MaxSpotAngle] degrees.
	//
	// Returns:
	//   - float32: outer half-angle in radians
	SpotAngle() float32

	// Enabled returns whether this light is active. Disabled lights keep their item index but
	// are assigned no bins or tiles.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetRange sets the maximum attenuation distance.
	//
	// Parameters:
	//   - lightRange: the range value
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights.
	// Angles are specified in degrees and stored internally as cosines.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:         &sync.Mutex{},
		lightType:  lightType,
		position:   mgl32.Vec3{0, 0, 0},
		direction:  mgl32.Vec3{0, -1, 0},
		lightRange: 10.0,
		enabled:    true,
	}
	l.setSpotCone(25, 35)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Range() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outerCone
}

func (l *lightImpl) SpotAngle() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spotAngle
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = mgl32.Vec3{x, y, z}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = normalize3(x, y, z)
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lightRange = lightRange
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setSpotCone(innerDeg, outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// setSpotCone stores the cone cosines and the clamped outer half-angle. Caller must hold the
// mutex or own the light exclusively.
func (l *lightImpl) setSpotCone(innerDeg, outerDeg float32) {
	outerDeg = clampAngle(outerDeg)
	innerDeg = min(clampAngle(innerDeg), outerDeg)
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
	l.spotAngle = mgl32.DegToRad(outerDeg)
}

func clampAngle(deg float32) float32 {
	if math32.IsNaN(deg) {
		return MinSpotAngle
	}
	return mgl32.Clamp(deg, MinSpotAngle, MaxSpotAngle)
}
