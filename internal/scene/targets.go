package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
)

var ErrUnknownTarget = errors.New("scene: unknown target")

// Targets is a fixed set of movable seek points. The engine resolves them
// from the actor goroutine while the viewer drags them from its own.
type Targets struct {
	mu     sync.RWMutex
	points []mgl64.Vec3
}

// NewTargets creates n targets at the origin.
func NewTargets(n int) *Targets {
	return &Targets{points: make([]mgl64.Vec3, n)}
}

// Len returns the number of targets.
func (t *Targets) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.points)
}

// Set moves target ref to p.
func (t *Targets) Set(ref flock.TargetRef, p mgl64.Vec3) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ref < 0 || int(ref) >= len(t.points) {
		return fmt.Errorf("%w: %d", ErrUnknownTarget, ref)
	}
	t.points[ref] = p
	return nil
}

// ResolveTarget implements flock.TargetResolver.
func (t *Targets) ResolveTarget(ref flock.TargetRef) (mgl64.Vec3, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if ref < 0 || int(ref) >= len(t.points) {
		return mgl64.Vec3{}, false
	}
	return t.points[ref], true
}

// Points returns a copy of every target position.
func (t *Targets) Points() []mgl64.Vec3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]mgl64.Vec3, len(t.points))
	copy(out, t.points)
	return out
}
