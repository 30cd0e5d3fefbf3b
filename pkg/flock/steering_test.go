package flock

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
)

func TestSteerTowards(t *testing.T) {
	tests := []struct {
		name     string
		velocity mgl64.Vec3
		desired  mgl64.Vec3
		maxForce float64
		maxSpeed float64
		want     mgl64.Vec3
	}{
		{"NullDesiredKeepsVelocity", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{}, 1, 5, mgl64.Vec3{1, 2, 3}},
		{"AlreadyAlignedReturnsDesired", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 7}, 1, 5, mgl64.Vec3{0, 0, 7}},
		{"BelowForceLimit", mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 10}, 10, 5, mgl64.Vec3{0, 0, 3}},
		{"ClampedToForceLimit", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}, 3, 5, mgl64.Vec3{0, 0, -3}},
		{"Sideways", mgl64.Vec3{}, mgl64.Vec3{2, 0, 0}, 10, 4, mgl64.Vec3{4, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SteerTowards(tt.velocity, tt.desired, tt.maxForce, tt.maxSpeed)
			if !geometry.Eq(got, tt.want) {
				t.Errorf("SteerTowards = %s; want %s", geometry.Format(got), geometry.Format(tt.want))
			}
		})
	}
}

func TestSteerTowards_BoundedByMaxSteerForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 10000 {
		v := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}.Mul(5)
		d := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		maxForce := rng.Float64() * 4
		maxSpeed := 0.5 + rng.Float64()*6

		delta := geometry.Normalize(d).Mul(maxSpeed).Sub(v)
		if geometry.IsZero(d) || geometry.IsZero(delta) {
			continue
		}
		got := SteerTowards(v, d, maxForce, maxSpeed)
		if got.Len() > maxForce+1e-12 {
			t.Fatalf("|SteerTowards(%s, %s)| = %v exceeds maxSteerForce %v",
				geometry.Format(v), geometry.Format(d), got.Len(), maxForce)
		}
	}
}

func TestFlockingAcceleration_NoNeighbors(t *testing.T) {
	s := testSettings()
	got := FlockingAcceleration(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 0, 3}, Neighborhood{}, s)
	if !geometry.IsZero(got) {
		t.Errorf("Expected zero acceleration without neighbors, got %s", geometry.Format(got))
	}
}

func TestFlockingAcceleration_Cohesion(t *testing.T) {
	// Me at the origin, one neighbor at 2,0,0 outside the avoidance radius.
	// Should be pulled towards it (positive X).
	s := testSettings()
	s.AlignWeight, s.SeparateWeight = 0, 0
	n := Neighborhood{
		Heading: mgl64.Vec3{0, 0, 1},
		Center:  mgl64.Vec3{2, 0, 0},
		Count:   1,
	}
	got := FlockingAcceleration(mgl64.Vec3{}, mgl64.Vec3{0, 0, 3}, n, s)
	if got.X() <= 0 {
		t.Errorf("Expected positive ax (cohesion), got %s", geometry.Format(got))
	}
}

func TestFlockingAcceleration_SeparationWithoutAvoidNeighbor(t *testing.T) {
	// A neighbor inside the perception radius but outside the avoidance
	// radius gives no separation direction: the rule falls back to
	// separateWeight * velocity.
	s := testSettings()
	s.AlignWeight, s.CohesionWeight, s.SeparateWeight = 0, 0, 1.5
	n := Neighborhood{
		Heading: mgl64.Vec3{0, 0, 1},
		Center:  mgl64.Vec3{2, 0, 0},
		Count:   1,
	}
	v := mgl64.Vec3{0, 0, 3}
	got := FlockingAcceleration(mgl64.Vec3{}, v, n, s)
	if want := v.Mul(1.5); !geometry.Eq(got, want) {
		t.Errorf("FlockingAcceleration = %s; want %s", geometry.Format(got), geometry.Format(want))
	}
}

func TestFlockingAcceleration_CancelledHeadings(t *testing.T) {
	// Two neighbors flying in opposite directions: the heading sum is null
	// and alignment yields alignWeight * velocity.
	s := testSettings()
	s.CohesionWeight, s.SeparateWeight, s.AlignWeight = 0, 0, 2
	n := Neighborhood{
		Heading: mgl64.Vec3{},
		Center:  mgl64.Vec3{0, 4, 0},
		Count:   2,
	}
	v := mgl64.Vec3{1, 0, 0}
	got := FlockingAcceleration(mgl64.Vec3{}, v, n, s)
	if want := v.Mul(2); !geometry.Eq(got, want) {
		t.Errorf("FlockingAcceleration = %s; want %s", geometry.Format(got), geometry.Format(want))
	}
}

func TestFlockingAcceleration_ZeroWeightSwitchesRuleOff(t *testing.T) {
	s := testSettings()
	s.AlignWeight, s.CohesionWeight, s.SeparateWeight = 0, 0, 0
	n := Neighborhood{Heading: mgl64.Vec3{0, 0, 1}, Center: mgl64.Vec3{2, 0, 0}, Count: 1}
	if got := FlockingAcceleration(mgl64.Vec3{}, mgl64.Vec3{0, 0, 3}, n, s); !geometry.IsZero(got) {
		t.Errorf("Expected zero with every weight at 0, got %s", geometry.Format(got))
	}
}

func TestTargetAcceleration_OnTarget(t *testing.T) {
	s := testSettings()
	s.TargetWeight = 0.5
	pos := mgl64.Vec3{4, -2, 7}
	v := mgl64.Vec3{0, 0, 3}

	got := TargetAcceleration(pos, v, pos, s)
	if want := v.Mul(0.5); !geometry.Eq(got, want) {
		t.Errorf("TargetAcceleration on target = %s; want %s", geometry.Format(got), geometry.Format(want))
	}
}

func TestTargetAcceleration_TargetAhead(t *testing.T) {
	// Target 10 units straight ahead: the pull is along the heading and its
	// magnitude is min(|desired - current|, maxSteerForce).
	s := testSettings()
	s.MaxSpeed, s.MaxSteerForce, s.TargetWeight = 5, 10, 1
	v := mgl64.Vec3{0, 0, 2}

	got := TargetAcceleration(mgl64.Vec3{}, v, mgl64.Vec3{0, 0, 10}, s)
	want := mgl64.Vec3{0, 0, 3}
	if !geometry.Eq(got, want) {
		t.Errorf("TargetAcceleration = %s; want %s", geometry.Format(got), geometry.Format(want))
	}
}
