package flock

import (
	"errors"
	"fmt"
	"math"
)

// SamplePrecision selects how many directions the collision probe tries.
type SamplePrecision string

const (
	PrecisionLow    SamplePrecision = "low"
	PrecisionMedium SamplePrecision = "medium"
	PrecisionHigh   SamplePrecision = "high"
)

// SampleCount returns the number of directions of the tier.
func (p SamplePrecision) SampleCount() int {
	switch p {
	case PrecisionLow:
		return 50
	case PrecisionHigh:
		return 300
	default:
		return 100
	}
}

// NeighborSearch selects how the aggregation phase finds neighbors.
type NeighborSearch string

const (
	// SearchAuto uses the grid once the population reaches GridThreshold.
	SearchAuto  NeighborSearch = "auto"
	SearchBrute NeighborSearch = "brute"
	SearchGrid  NeighborSearch = "grid"
)

// FrameSkip staggers collision probing across frames by agent index.
type FrameSkip struct {
	Enabled   bool `json:"enabled"`
	SkipEvery int  `json:"skipEvery"`
}

// CollisionSettings drives the obstacle avoidance probe.
type CollisionSettings struct {
	Enabled              bool            `json:"enabled"`
	AvoidCollisionWeight float64         `json:"avoidCollisionWeight"`
	CheckDistance        float64         `json:"checkDistance"`
	CheckRadius          float64         `json:"checkRadius"` // 0 means a thin ray-cast
	LayerMask            uint32          `json:"layerMask"`
	Precision            SamplePrecision `json:"precision"`
	FrameSkip            FrameSkip       `json:"frameSkip"`
}

// Settings controls the physics constants for the simulation.
// A *Settings handed to the engine is treated as immutable: hot reloads go
// through Engine.UpdateSettings with a fresh value.
type Settings struct {
	// Movement bounds
	MinSpeed      float64 `json:"minSpeed"`
	MaxSpeed      float64 `json:"maxSpeed"`
	MaxSteerForce float64 `json:"maxSteerForce"`
	MaxTurnSpeed  float64 `json:"maxTurnSpeed"` // degrees per second, 0 disables turn limiting

	// Perception
	PerceptionRadius float64 `json:"perceptionRadius"`
	PerceptionAngle  float64 `json:"perceptionAngle"` // full cone in degrees, 0 or >= 360 sees all around
	AvoidanceRadius  float64 `json:"avoidanceRadius"`

	// Rule weights
	AlignWeight    float64 `json:"alignWeight"`
	CohesionWeight float64 `json:"cohesionWeight"`
	SeparateWeight float64 `json:"separateWeight"`
	TargetWeight   float64 `json:"targetWeight"`

	Collision CollisionSettings `json:"collision"`

	ParallelBatchSize int            `json:"parallelBatchSize"` // <= 0 splits evenly across workers
	NeighborSearch    NeighborSearch `json:"neighborSearch"`
	GridThreshold     int            `json:"gridThreshold"`
}

// DefaultSettings returns a tuning that gives a calm, cohesive flock in a
// room a few dozen units wide.
func DefaultSettings() *Settings {
	return &Settings{
		MinSpeed:         2,
		MaxSpeed:         5,
		MaxSteerForce:    3,
		PerceptionRadius: 2.5,
		AvoidanceRadius:  1,
		AlignWeight:      1,
		CohesionWeight:   1,
		SeparateWeight:   1,
		TargetWeight:     1,
		Collision: CollisionSettings{
			Enabled:              true,
			AvoidCollisionWeight: 10,
			CheckDistance:        5,
			CheckRadius:          0.27,
			LayerMask:            ^uint32(0),
			Precision:            PrecisionMedium,
			FrameSkip:            FrameSkip{Enabled: false, SkipEvery: 2},
		},
		ParallelBatchSize: 64,
		NeighborSearch:    SearchAuto,
		GridThreshold:     1024,
	}
}

// Validate checks the tunables the engine relies on.
func (s *Settings) Validate() error {
	var errs []error
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"minSpeed", s.MinSpeed},
		{"maxSpeed", s.MaxSpeed},
		{"maxSteerForce", s.MaxSteerForce},
		{"maxTurnSpeed", s.MaxTurnSpeed},
		{"perceptionRadius", s.PerceptionRadius},
		{"perceptionAngle", s.PerceptionAngle},
		{"avoidanceRadius", s.AvoidanceRadius},
		{"alignWeight", s.AlignWeight},
		{"cohesionWeight", s.CohesionWeight},
		{"separateWeight", s.SeparateWeight},
		{"targetWeight", s.TargetWeight},
		{"collision.avoidCollisionWeight", s.Collision.AvoidCollisionWeight},
		{"collision.checkDistance", s.Collision.CheckDistance},
		{"collision.checkRadius", s.Collision.CheckRadius},
	} {
		// NaN slips through every comparison below
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errs = append(errs, fmt.Errorf("%s must be finite, got %v", f.name, f.value))
		}
	}
	if s.MaxSpeed <= 0 {
		errs = append(errs, fmt.Errorf("maxSpeed must be > 0, got %v", s.MaxSpeed))
	}
	if s.MinSpeed < 0 || s.MinSpeed > s.MaxSpeed {
		errs = append(errs, fmt.Errorf("minSpeed must be in [0, maxSpeed], got %v", s.MinSpeed))
	}
	if s.MaxSteerForce < 0 {
		errs = append(errs, fmt.Errorf("maxSteerForce must be >= 0, got %v", s.MaxSteerForce))
	}
	if s.MaxTurnSpeed < 0 {
		errs = append(errs, fmt.Errorf("maxTurnSpeed must be >= 0, got %v", s.MaxTurnSpeed))
	}
	if s.PerceptionRadius < 0 || s.AvoidanceRadius < 0 {
		errs = append(errs, errors.New("perception and avoidance radii must be >= 0"))
	}
	if s.PerceptionAngle < 0 {
		errs = append(errs, fmt.Errorf("perceptionAngle must be >= 0, got %v", s.PerceptionAngle))
	}
	if s.Collision.CheckDistance < 0 || s.Collision.CheckRadius < 0 {
		errs = append(errs, errors.New("collision checkDistance and checkRadius must be >= 0"))
	}
	if s.Collision.FrameSkip.Enabled && s.Collision.FrameSkip.SkipEvery < 1 {
		errs = append(errs, fmt.Errorf("frameSkip.skipEvery must be >= 1, got %d", s.Collision.FrameSkip.SkipEvery))
	}
	switch s.Collision.Precision {
	case "", PrecisionLow, PrecisionMedium, PrecisionHigh:
	default:
		errs = append(errs, fmt.Errorf("unknown collision precision %q", s.Collision.Precision))
	}
	switch s.NeighborSearch {
	case "", SearchAuto, SearchBrute, SearchGrid:
	default:
		errs = append(errs, fmt.Errorf("unknown neighbor search %q", s.NeighborSearch))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// Clone returns a copy safe to mutate.
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// useGrid decides the neighbor search for a population of n agents.
func (s *Settings) useGrid(n int) bool {
	switch s.NeighborSearch {
	case SearchGrid:
		return true
	case SearchBrute:
		return false
	default:
		threshold := s.GridThreshold
		if threshold <= 0 {
			threshold = 1024
		}
		return n >= threshold
	}
}

// probeScheduled reports whether agent i runs its collision probe on frame.
func (s *Settings) probeScheduled(i int, frame uint64) bool {
	fs := s.Collision.FrameSkip
	if !fs.Enabled || fs.SkipEvery <= 1 {
		return true
	}
	return (uint64(i)+frame)%uint64(fs.SkipEvery) == 0
}
