package flock

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
)

// Integrate applies accel over dt seconds to the velocity prev and returns
// the new velocity, clamped to the settings bounds.
//
// Order matters: a (near) null result is reseeded onto geometry.Forward,
// the turn rate is limited against prev, and only then is the speed clamped.
// The result always satisfies MinSpeed <= |v| <= MaxSpeed and |v| > 0.
func Integrate(prev, accel mgl64.Vec3, dt float64, s *Settings) mgl64.Vec3 {
	v := prev.Add(accel.Mul(dt))
	if v.Len() < geometry.Epsilon {
		v = geometry.Forward
	}

	if s.MaxTurnSpeed > 0 && prev.Len() >= geometry.Epsilon {
		angle := geometry.AngleBetween(prev, v)
		allowed := s.MaxTurnSpeed * dt
		if angle > allowed {
			limited := geometry.Lerp(prev, v, allowed/angle)
			// a half turn can interpolate through zero, keep the old heading then
			if limited.Len() < geometry.Epsilon {
				limited = prev
			}
			v = limited
		}
	}

	return clampSpeed(v, s.MinSpeed, s.MaxSpeed)
}

// clampSpeed rescales v into [minSpeed, maxSpeed] keeping its direction.
// A speed already in range is left untouched so no rounding creeps in.
func clampSpeed(v mgl64.Vec3, minSpeed, maxSpeed float64) mgl64.Vec3 {
	speed := v.Len()
	switch {
	case speed > maxSpeed:
		return v.Mul(maxSpeed / speed)
	case speed < minSpeed:
		return v.Mul(minSpeed / speed)
	default:
		return v
	}
}
