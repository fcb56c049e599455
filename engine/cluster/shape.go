package cluster

import (
	"math"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/probe"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// shapeKind identifies the bounding volume used for an item.
type shapeKind uint8

const (
	// shapeNone marks an item that contributes to no bin or tile.
	shapeNone shapeKind = iota
	shapeSphere
	shapeCone
	shapeBox
)

// itemShape is the view-space bounding volume of one item, produced by the geometry stage and
// read by the binning and tiling stages.
type itemShape struct {
	kind       shapeKind
	minZ, maxZ float32

	center  mgl32.Vec3 // sphere center
	radius  float32
	cone    Cone
	corners [8]mgl32.Vec3
}

// lightSnapshot is a copy of the light state taken in Setup so jobs never call back into
// caller-owned objects.
type lightSnapshot struct {
	kind      light.LightType
	enabled   bool
	position  mgl32.Vec3
	direction mgl32.Vec3
	rng       float32
	angle     float32
}

func snapshotLight(l light.Light) lightSnapshot {
	return lightSnapshot{
		kind:      l.Type(),
		enabled:   l.Enabled(),
		position:  l.Position(),
		direction: l.Direction(),
		rng:       l.Range(),
		angle:     l.SpotAngle(),
	}
}

// probeSnapshot is a copy of a probe's world-space box taken in Setup.
type probeSnapshot struct {
	missing bool
	lo, hi  mgl32.Vec3
	corners [8]mgl32.Vec3
}

func snapshotProbe(p probe.ReflectionProbe) probeSnapshot {
	if p == nil {
		return probeSnapshot{missing: true}
	}
	lo, hi := p.Bounds()
	return probeSnapshot{lo: lo, hi: hi, corners: p.Corners()}
}

// sphereAngle is the spot half-angle, in radians, from which a spot light is bounded by its
// range sphere.
var sphereAngle = mgl32.DegToRad(light.SphereSpotAngle)

// noShape returns the shape of an item that contributes nothing. Its depth range is empty.
func noShape() itemShape {
	return itemShape{kind: shapeNone, minZ: math.MaxFloat32, maxZ: -math.MaxFloat32}
}

// analyzeLight builds the view-space bounding volume of a light. Unsupported kinds, disabled
// lights and lights outside the frustum get shapeNone.
func analyzeLight(p *frameParams, frustum *common.Frustum, ls *lightSnapshot) itemShape {
	if !ls.enabled || !(ls.rng > 0) {
		return noShape()
	}
	if frustum != nil && !frustum.IntersectsSphere(ls.position, ls.rng) {
		return noShape()
	}

	var s itemShape
	switch ls.kind {
	case light.LightTypePoint:
		s = sphereShape(p, ls)
	case light.LightTypeSpot:
		dir := common.TransformDirection(p.view, ls.direction)
		if ls.angle >= sphereAngle || dir.Len() < common.Epsilon {
			s = sphereShape(p, ls)
			break
		}
		s.kind = shapeCone
		s.cone = NewCone(common.TransformPoint(p.view, ls.position), dir, ls.angle, ls.rng)
		s.minZ, s.maxZ = ConeDepth(&s.cone)
	default:
		return noShape()
	}
	return clipDepth(p, s)
}

func sphereShape(p *frameParams, ls *lightSnapshot) itemShape {
	s := itemShape{
		kind:   shapeSphere,
		center: common.TransformPoint(p.view, ls.position),
		radius: ls.rng,
	}
	s.minZ, s.maxZ = SphereDepth(s.center, s.radius)
	return s
}

// analyzeProbe builds the view-space bounding volume of a reflection probe.
func analyzeProbe(p *frameParams, frustum *common.Frustum, ps *probeSnapshot) itemShape {
	if ps.missing {
		return noShape()
	}
	if frustum != nil && !frustum.IntersectsAABB(ps.lo, ps.hi) {
		return noShape()
	}
	s := itemShape{kind: shapeBox}
	for i, c := range ps.corners {
		s.corners[i] = common.TransformPoint(p.view, c)
	}
	s.minZ, s.maxZ = BoxDepth(&s.corners)
	return clipDepth(p, s)
}

// clipDepth clamps a shape's depth range and drops shapes that lie entirely outside
// [near, far]. Perspective depths are clamped to be non-negative.
func clipDepth(p *frameParams, s itemShape) itemShape {
	if !p.orthographic {
		s.minZ = max(s.minZ, 0)
		s.maxZ = max(s.maxZ, 0)
	}
	if s.maxZ < p.near || s.minZ > p.far || math32.IsNaN(s.minZ) || math32.IsNaN(s.maxZ) {
		return noShape()
	}
	return s
}
