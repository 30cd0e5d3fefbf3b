// Package scene instantiates a flock from a configuration file: the agent
// store, the obstacle world and the seek targets.
package scene

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/config"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/obstacles"
)

// Scene is everything the engine needs besides its settings.
type Scene struct {
	Store   *flock.Store
	World   *obstacles.World
	Targets *Targets
}

// Build creates the scene described by cfg. The same seed always spawns the
// same flock.
func Build(cfg *config.File) (*Scene, error) {
	if cfg.Population < 1 {
		return nil, fmt.Errorf("scene: population must be >= 1, got %d", cfg.Population)
	}
	world, err := buildWorld(cfg.Scene)
	if err != nil {
		return nil, err
	}

	targets := NewTargets(len(cfg.Scene.Targets))
	for i, p := range cfg.Scene.Targets {
		if err := targets.Set(flock.TargetRef(i), vec(p)); err != nil {
			return nil, err
		}
	}

	store := Spawn(cfg.Population, cfg.Seed, vec(cfg.Scene.SpawnCenter), cfg.Scene.SpawnRadius, cfg.Settings)
	// round robin, so every target gets its share of the flock
	if n := targets.Len(); n > 0 {
		for i := range store.Targets {
			store.Targets[i] = flock.TargetRef(i % n)
		}
	}

	return &Scene{Store: store, World: world, Targets: targets}, nil
}

// Spawn places n agents uniformly inside the ball of the given center and
// radius, each heading in a random direction at the middle of the allowed
// speed range.
func Spawn(n int, seed uint64, center mgl64.Vec3, radius float64, s *flock.Settings) *flock.Store {
	rng := rand.New(rand.NewPCG(seed, seed^0x5deece66d))
	speed := (s.MinSpeed + s.MaxSpeed) / 2
	store := flock.NewStore(n)
	for i := range n {
		// cube root keeps the density uniform over the volume
		r := radius * math.Cbrt(rng.Float64())
		store.Positions[i] = center.Add(randomDirection(rng).Mul(r))
		store.Velocities[i] = randomDirection(rng).Mul(speed)
	}
	return store
}

func randomDirection(rng *rand.Rand) mgl64.Vec3 {
	for {
		d := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		if d.LenSqr() > 1e-12 {
			return geometry.Normalize(d)
		}
	}
}

func buildWorld(sc config.Scene) (*obstacles.World, error) {
	w := obstacles.NewWorld()
	for i, s := range sc.Spheres {
		if err := w.AddSphere(obstacles.Sphere{Center: vec(s.Center), Radius: s.Radius, Layer: s.Layer}); err != nil {
			return nil, fmt.Errorf("scene: sphere %d: %w", i, err)
		}
	}
	for i, b := range sc.Boxes {
		if err := w.AddBox(obstacles.Box{Min: vec(b.Min), Max: vec(b.Max), Layer: b.Layer}); err != nil {
			return nil, fmt.Errorf("scene: box %d: %w", i, err)
		}
	}
	if b := sc.Bounds; b != nil {
		if err := w.SetBounds(obstacles.Box{Min: vec(b.Min), Max: vec(b.Max), Layer: b.Layer}); err != nil {
			return nil, fmt.Errorf("scene: bounds: %w", err)
		}
	}
	return w, nil
}

func vec(v config.Vec3) mgl64.Vec3 {
	return mgl64.Vec3(v)
}
