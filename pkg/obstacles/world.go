// Package obstacles is a small static collision world: spheres, boxes and a
// containing bounds box, each on a layer. It answers the ray and sphere
// casts of the flock collision probe.
package obstacles

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidShape = errors.New("obstacles: invalid shape")
	ErrInvalidQuery = errors.New("obstacles: invalid query")
)

// MaxLayer is the highest layer index a shape can live on.
const MaxLayer = 31

// Sphere is a solid ball.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
	Layer  uint8
}

// Box is an axis aligned box.
type Box struct {
	Min, Max mgl64.Vec3
	Layer    uint8
}

// World holds the obstacles. It is built once before the simulation starts
// and is read only afterwards.
type World struct {
	spheres []Sphere
	boxes   []Box
	bounds  *Box
}

// NewWorld returns an empty world, every cast is clear.
func NewWorld() *World {
	return &World{}
}

func checkLayer(layer uint8) error {
	if layer > MaxLayer {
		return fmt.Errorf("%w: layer %d above %d", ErrInvalidShape, layer, MaxLayer)
	}
	return nil
}

// AddSphere adds a sphere obstacle.
func (w *World) AddSphere(s Sphere) error {
	if s.Radius <= 0 {
		return fmt.Errorf("%w: sphere radius must be > 0, got %v", ErrInvalidShape, s.Radius)
	}
	if err := checkLayer(s.Layer); err != nil {
		return err
	}
	w.spheres = append(w.spheres, s)
	return nil
}

// AddBox adds a solid box obstacle.
func (w *World) AddBox(b Box) error {
	if err := checkBox(b); err != nil {
		return err
	}
	w.boxes = append(w.boxes, b)
	return nil
}

// SetBounds sets the box the agents must stay in. Casts leaving it are
// blocked.
func (w *World) SetBounds(b Box) error {
	if err := checkBox(b); err != nil {
		return err
	}
	w.bounds = &b
	return nil
}

func checkBox(b Box) error {
	for axis := range 3 {
		if b.Min[axis] > b.Max[axis] {
			return fmt.Errorf("%w: box min %v above max %v", ErrInvalidShape, b.Min, b.Max)
		}
	}
	return checkLayer(b.Layer)
}

// Counts returns the number of spheres and boxes.
func (w *World) Counts() (spheres, boxes int) {
	return len(w.spheres), len(w.boxes)
}

// Spheres returns a copy of the sphere obstacles.
func (w *World) Spheres() []Sphere {
	return slices.Clone(w.spheres)
}

// Boxes returns a copy of the box obstacles.
func (w *World) Boxes() []Box {
	return slices.Clone(w.boxes)
}

// Bounds returns the bounds box, if any.
func (w *World) Bounds() (Box, bool) {
	if w.bounds == nil {
		return Box{}, false
	}
	return *w.bounds, true
}

// QueryBlocked sweeps a sphere of the given radius (a ray when radius is 0)
// from origin along the unit vector dir over maxDistance, and reports
// whether it touches an obstacle on one of the layers of layerMask.
func (w *World) QueryBlocked(origin, dir mgl64.Vec3, radius, maxDistance float64, layerMask uint32) (bool, error) {
	if radius < 0 || maxDistance < 0 {
		return false, fmt.Errorf("%w: radius %v, distance %v", ErrInvalidQuery, radius, maxDistance)
	}
	if l := dir.Len(); math.Abs(l-1) > 1e-6 {
		return false, fmt.Errorf("%w: direction length %v, want a unit vector", ErrInvalidQuery, l)
	}
	end := origin.Add(dir.Mul(maxDistance))

	for _, s := range w.spheres {
		if !onLayer(s.Layer, layerMask) {
			continue
		}
		r := s.Radius + radius
		if segmentPointDistSqr(origin, dir, maxDistance, s.Center) <= r*r {
			return true, nil
		}
	}

	inflate := mgl64.Vec3{radius, radius, radius}
	for _, b := range w.boxes {
		if !onLayer(b.Layer, layerMask) {
			continue
		}
		if segmentHitsBox(origin, dir, maxDistance, b.Min.Sub(inflate), b.Max.Add(inflate)) {
			return true, nil
		}
	}

	if b := w.bounds; b != nil && onLayer(b.Layer, layerMask) {
		if !inside(end, b.Min.Add(inflate), b.Max.Sub(inflate)) {
			return true, nil
		}
	}
	return false, nil
}

func onLayer(layer uint8, mask uint32) bool {
	return mask&(1<<layer) != 0
}

// segmentPointDistSqr returns the squared distance from p to the segment
// starting at origin, along dir, of the given length.
func segmentPointDistSqr(origin, dir mgl64.Vec3, length float64, p mgl64.Vec3) float64 {
	t := mgl64.Clamp(p.Sub(origin).Dot(dir), 0, length)
	return origin.Add(dir.Mul(t)).Sub(p).LenSqr()
}

// segmentHitsBox is the slab test over t in [0, length].
func segmentHitsBox(origin, dir mgl64.Vec3, length float64, lo, hi mgl64.Vec3) bool {
	tMin, tMax := 0.0, length
	for axis := range 3 {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}

func inside(p, lo, hi mgl64.Vec3) bool {
	for axis := range 3 {
		if p[axis] < lo[axis] || p[axis] > hi[axis] {
			return false
		}
	}
	return true
}
