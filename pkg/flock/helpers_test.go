package flock

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// randomStore fills a store with n agents inside a cube of the given side,
// moving at random speeds within [1, 4]. The same seed gives the same store.
func randomStore(n int, side float64, seed uint64) *Store {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s := NewStore(n)
	for i := range n {
		s.Positions[i] = mgl64.Vec3{rng.Float64() * side, rng.Float64() * side, rng.Float64() * side}
		dir := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}.Normalize()
		s.Velocities[i] = dir.Mul(1 + 3*rng.Float64())
	}
	return s
}

// testSettings returns settings without collision avoidance.
func testSettings() *Settings {
	s := DefaultSettings()
	s.Collision.Enabled = false
	return s
}

type fixedTargets map[TargetRef]mgl64.Vec3

func (f fixedTargets) ResolveTarget(ref TargetRef) (mgl64.Vec3, bool) {
	p, ok := f[ref]
	return p, ok
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}
