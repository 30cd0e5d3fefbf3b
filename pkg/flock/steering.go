package flock

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
)

// SteerTowards returns the acceleration that turns velocity towards
// desired at full speed, bounded by maxSteerForce.
//
// A null desired direction carries no signal and velocity is returned as is.
// When velocity already equals desired at maxSpeed there is nothing to
// correct and desired itself is returned.
func SteerTowards(velocity, desired mgl64.Vec3, maxSteerForce, maxSpeed float64) mgl64.Vec3 {
	if geometry.IsZero(desired) {
		return velocity
	}
	delta := geometry.Normalize(desired).Mul(maxSpeed).Sub(velocity)
	if geometry.IsZero(delta) {
		return desired
	}
	return geometry.ClampLength(delta, maxSteerForce)
}

// FlockingAcceleration combines alignment, cohesion and separation for an
// agent at pos moving at velocity. An agent without neighbors gets zero.
func FlockingAcceleration(pos, velocity mgl64.Vec3, n Neighborhood, s *Settings) mgl64.Vec3 {
	if n.Count == 0 {
		return mgl64.Vec3{}
	}
	center := n.Center.Mul(1 / float64(n.Count))

	alignment := steerTerm(velocity, n.Heading, s.AlignWeight, s)
	cohesion := steerTerm(velocity, center.Sub(pos), s.CohesionWeight, s)
	separation := steerTerm(velocity, n.Avoid, s.SeparateWeight, s)

	return alignment.Add(cohesion).Add(separation)
}

// TargetAcceleration pulls an agent towards a seek point. An agent sitting
// exactly on its target gets targetWeight times its velocity, like any rule
// without a direction.
func TargetAcceleration(pos, velocity, target mgl64.Vec3, s *Settings) mgl64.Vec3 {
	return steerTerm(velocity, target.Sub(pos), s.TargetWeight, s)
}

// steerTerm is one weighted rule of the composite. A rule without signal
// (no avoid neighbor, headings that cancel out) yields weight * velocity,
// the SteerTowards fallback. Only a zero weight switches a rule off.
func steerTerm(velocity, desired mgl64.Vec3, weight float64, s *Settings) mgl64.Vec3 {
	if weight == 0 {
		return mgl64.Vec3{}
	}
	return SteerTowards(velocity, desired, s.MaxSteerForce, s.MaxSpeed).Mul(weight)
}
