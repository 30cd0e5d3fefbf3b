package flock

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DirectionSampleSet is an ordered, immutable set of unit vectors spread
// over the sphere with the Fibonacci (golden angle) spiral. Sample 0 is
// geometry.Forward and the following ones sweep progressively away from it,
// so trying them in order tries the smallest deviations first.
//
// A set is built once and shared read-only by every agent, batch and tick.
type DirectionSampleSet struct {
	precision  SamplePrecision
	directions []mgl64.Vec3
}

// NewDirectionSampleSet builds the set of the given precision tier.
func NewDirectionSampleSet(p SamplePrecision) *DirectionSampleSet {
	if p == "" {
		p = PrecisionMedium
	}
	return &DirectionSampleSet{
		precision:  p,
		directions: fibonacciSphere(p.SampleCount()),
	}
}

// Precision returns the tier the set was built for.
func (d *DirectionSampleSet) Precision() SamplePrecision {
	return d.precision
}

// Len returns the number of samples.
func (d *DirectionSampleSet) Len() int {
	return len(d.directions)
}

// At returns sample k in the local frame, where +Z is straight ahead.
func (d *DirectionSampleSet) At(k int) mgl64.Vec3 {
	return d.directions[k]
}

func fibonacciSphere(n int) []mgl64.Vec3 {
	goldenRatio := (1 + math.Sqrt(5)) / 2
	angleIncrement := 2 * math.Pi * goldenRatio

	dirs := make([]mgl64.Vec3, n)
	for i := range n {
		t := float64(i) / float64(n)
		inclination := math.Acos(1 - 2*t)
		azimuth := angleIncrement * float64(i)

		dirs[i] = mgl64.Vec3{
			math.Sin(inclination) * math.Cos(azimuth),
			math.Sin(inclination) * math.Sin(azimuth),
			math.Cos(inclination),
		}
	}
	return dirs
}
