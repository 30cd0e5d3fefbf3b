package flock

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
)

// Perception describes what one agent can see.
type Perception struct {
	Detect float64 // alignment and cohesion radius
	Avoid  float64 // separation radius
	// CosHalfFOV is the cosine of half the perception cone. Values <= -1
	// mean the agent sees all around.
	CosHalfFOV float64
}

// cosHalfFOV converts a full cone angle in degrees to the cosine used by
// Perception. 0 and anything >= 360 disable the cone.
func cosHalfFOV(angle float64) float64 {
	if angle <= 0 || angle >= 360 {
		return -1
	}
	return math.Cos(mgl64.DegToRad(angle / 2))
}

// Neighborhood holds the raw sums gathered around one agent.
// Center is a sum of positions, divide it by Count (when Count > 0) to get
// the local center of mass.
type Neighborhood struct {
	Heading mgl64.Vec3
	Center  mgl64.Vec3
	Avoid   mgl64.Vec3
	Count   int
}

// Aggregate scans every other agent and accumulates the neighborhood of
// agent i. It is the O(n) reference form; SpatialGrid.Aggregate returns the
// same sums bit for bit.
func Aggregate(i int, positions, velocities []mgl64.Vec3, p Perception) Neighborhood {
	var n Neighborhood
	forward := geometry.Normalize(velocities[i])
	for j := range positions {
		if j == i {
			continue
		}
		n.accumulate(positions[i], forward, positions[j], velocities[j], p)
	}
	return n
}

// accumulate adds agent j (at pos with velocity vel) to the neighborhood of
// an agent at origin heading along forward.
func (n *Neighborhood) accumulate(origin, forward, pos, vel mgl64.Vec3, p Perception) {
	offset := origin.Sub(pos)
	distSq := offset.LenSqr()
	// coincident agents are excluded, there is no direction to work with
	if distSq == 0 || distSq > p.Detect*p.Detect {
		return
	}
	dist := math.Sqrt(distSq)
	if p.CosHalfFOV > -1 && !geometry.IsZero(forward) {
		// offset points from j to i, the line of sight is its opposite
		if forward.Dot(offset.Mul(-1/dist)) < p.CosHalfFOV {
			return
		}
	}

	n.Heading = n.Heading.Add(geometry.Normalize(vel))
	n.Center = n.Center.Add(pos)
	n.Count++

	if dist <= p.Avoid {
		n.Avoid = n.Avoid.Add(offset.Mul(1 / distSq))
	}
}
