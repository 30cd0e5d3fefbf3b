package flock

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// TargetRef is an opaque handle to a seek point owned by a TargetResolver.
// The store only keeps the handle, never the target itself.
type TargetRef int32

// NoTarget disables the target force for an agent.
const NoTarget TargetRef = -1

// Store holds the persistent per-agent state as flat co-indexed arrays.
// The index of an agent is its identity for the whole session, so the
// renderer and the scene collaborators address agents by index only.
//
// The slices are exported for zero-copy reads by collaborators; their
// lengths must not change after NewStore. The engine checks that at the
// start of every tick.
type Store struct {
	Positions        []mgl64.Vec3
	Velocities       []mgl64.Vec3
	Targets          []TargetRef
	CollisionEnabled []bool

	// Per-agent overrides, 0 means "use the settings value".
	PerceptionRadius []float64
	AvoidanceRadius  []float64
}

// NewStore allocates a store for n agents, all at the origin, without
// target and with collision probing enabled.
func NewStore(n int) *Store {
	s := &Store{
		Positions:        make([]mgl64.Vec3, n),
		Velocities:       make([]mgl64.Vec3, n),
		Targets:          make([]TargetRef, n),
		CollisionEnabled: make([]bool, n),
		PerceptionRadius: make([]float64, n),
		AvoidanceRadius:  make([]float64, n),
	}
	for i := range n {
		s.Targets[i] = NoTarget
		s.CollisionEnabled[i] = true
	}
	return s
}

// Len returns the population size.
func (s *Store) Len() int {
	return len(s.Positions)
}

// Validate checks that every array is co-indexed with Positions.
func (s *Store) Validate() error {
	n := len(s.Positions)
	lengths := []struct {
		name string
		l    int
	}{
		{"velocities", len(s.Velocities)},
		{"targets", len(s.Targets)},
		{"collisionEnabled", len(s.CollisionEnabled)},
		{"perceptionRadius", len(s.PerceptionRadius)},
		{"avoidanceRadius", len(s.AvoidanceRadius)},
	}
	for _, c := range lengths {
		if c.l != n {
			return fmt.Errorf("%w: %s has %d entries, positions has %d", ErrSizeMismatch, c.name, c.l, n)
		}
	}
	return nil
}

// perception resolves the radii of agent i against the settings defaults.
func (s *Store) perception(i int, st *Settings, cosHalfFOV float64) Perception {
	p := Perception{
		Detect:     st.PerceptionRadius,
		Avoid:      st.AvoidanceRadius,
		CosHalfFOV: cosHalfFOV,
	}
	if r := s.PerceptionRadius[i]; r > 0 {
		p.Detect = r
	}
	if r := s.AvoidanceRadius[i]; r > 0 {
		p.Avoid = r
	}
	return p
}

// maxPerception returns the largest detection radius in use, which sizes
// the spatial grid cells.
func (s *Store) maxPerception(st *Settings) float64 {
	maxR := st.PerceptionRadius
	for _, r := range s.PerceptionRadius {
		if r > maxR {
			maxR = r
		}
	}
	return maxR
}
