package flock

import "github.com/go-gl/mathgl/mgl64"

// workingSet is the per-tick scratch of the engine, kept apart from the
// persistent Store. Slot i is reset by the parallel phase before agent i is
// computed and reset again by the sequential phase once the acceleration
// has been applied, so nothing carries over to the next tick.
type workingSet struct {
	acceleration []mgl64.Vec3
	heading      []mgl64.Vec3
	center       []mgl64.Vec3
	avoid        []mgl64.Vec3
	count        []int32
}

func newWorkingSet(n int) *workingSet {
	return &workingSet{
		acceleration: make([]mgl64.Vec3, n),
		heading:      make([]mgl64.Vec3, n),
		center:       make([]mgl64.Vec3, n),
		avoid:        make([]mgl64.Vec3, n),
		count:        make([]int32, n),
	}
}

func (w *workingSet) reset(i int) {
	w.acceleration[i] = mgl64.Vec3{}
	w.heading[i] = mgl64.Vec3{}
	w.center[i] = mgl64.Vec3{}
	w.avoid[i] = mgl64.Vec3{}
	w.count[i] = 0
}

// store records the neighborhood and flocking acceleration of agent i.
func (w *workingSet) store(i int, n Neighborhood, accel mgl64.Vec3) {
	w.heading[i] = n.Heading
	w.center[i] = n.Center
	w.avoid[i] = n.Avoid
	w.count[i] = int32(n.Count)
	w.acceleration[i] = accel
}

// accel returns the flocking acceleration computed for agent i.
func (w *workingSet) accel(i int) mgl64.Vec3 {
	return w.acceleration[i]
}

// neighbors returns the detected neighbor count of agent i for this tick.
func (w *workingSet) neighbors(i int) int {
	return int(w.count[i])
}

// clean reports whether every slot is zero, i.e. the tick fully consumed
// its scratch.
func (w *workingSet) clean() bool {
	for i := range w.acceleration {
		if w.acceleration[i] != (mgl64.Vec3{}) || w.heading[i] != (mgl64.Vec3{}) ||
			w.center[i] != (mgl64.Vec3{}) || w.avoid[i] != (mgl64.Vec3{}) || w.count[i] != 0 {
			return false
		}
	}
	return true
}
