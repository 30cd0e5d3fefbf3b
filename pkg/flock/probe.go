package flock

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
)

// CollisionQuerier is the collision query service of the host world.
// QueryBlocked casts from origin along the unit vector dir over maxDistance,
// as a sphere of the given radius (a ray when radius is 0), against the
// obstacles of layerMask, and reports whether something is hit.
//
// The engine calls it from the sequential phase only, so implementations
// do not need to be safe for concurrent use.
type CollisionQuerier interface {
	QueryBlocked(origin, dir mgl64.Vec3, radius, maxDistance float64, layerMask uint32) (bool, error)
}

// QuerierFunc adapts a plain function to CollisionQuerier.
type QuerierFunc func(origin, dir mgl64.Vec3, radius, maxDistance float64, layerMask uint32) (bool, error)

// QueryBlocked calls f.
func (f QuerierFunc) QueryBlocked(origin, dir mgl64.Vec3, radius, maxDistance float64, layerMask uint32) (bool, error) {
	return f(origin, dir, radius, maxDistance, layerMask)
}

// ProbeResult describes one probe for telemetry.
type ProbeResult struct {
	Sample  int // index of the chosen sample, -1 when every sample is blocked
	Queries int
	Errors  int
}

// Probe searches for the first clear heading around an agent.
type Probe struct {
	samples *DirectionSampleSet
	querier CollisionQuerier
}

// NewProbe binds a sample set to a collision service.
func NewProbe(samples *DirectionSampleSet, querier CollisionQuerier) *Probe {
	return &Probe{samples: samples, querier: querier}
}

// Samples returns the sample set in use.
func (p *Probe) Samples() *DirectionSampleSet {
	return p.samples
}

// Avoid returns the avoidance acceleration for an agent at position moving
// at velocity. Samples are rotated into the agent frame and tried in
// order; the first clear one wins. A failing query counts as blocked. When
// no sample is clear the zero vector is returned and the agent keeps its
// heading.
func (p *Probe) Avoid(position, velocity mgl64.Vec3, s *Settings) (mgl64.Vec3, ProbeResult) {
	res := ProbeResult{Sample: -1}
	if p.querier == nil {
		return mgl64.Vec3{}, res
	}
	c := &s.Collision
	rot := geometry.AlignAxis(geometry.Forward, velocity)

	for k := range p.samples.Len() {
		dir := rot.Rotate(p.samples.At(k))
		res.Queries++
		blocked, err := p.querier.QueryBlocked(position, dir, c.CheckRadius, c.CheckDistance, c.LayerMask)
		if err != nil {
			res.Errors++
			continue
		}
		if !blocked {
			res.Sample = k
			return SteerTowards(velocity, dir, s.MaxSteerForce, s.MaxSpeed).Mul(c.AvoidCollisionWeight), res
		}
	}
	return mgl64.Vec3{}, res
}
