package flock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/geometry"
	"go.uber.org/zap"
)

// TargetResolver resolves a target handle to the current seek point.
// It returns false when the handle does not resolve (anymore); the agent
// then gets no target force.
type TargetResolver interface {
	ResolveTarget(ref TargetRef) (mgl64.Vec3, bool)
}

// AgentView is the read-only state a renderer needs for one agent.
type AgentView struct {
	Position mgl64.Vec3
	Forward  mgl64.Vec3
}

// TickStats summarises the work done by one tick.
type TickStats struct {
	Frame            uint64
	Agents           int
	Batches          int
	UsedGrid         bool
	Neighbors        int
	Targets          int
	Probes           int
	ProbeQueries     int
	ProbesBlocked    int
	QueryErrors      int
	ParallelDuration time.Duration
	Duration         time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger, the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCollisionQuerier plugs the collision service used by the probe.
// Without one, collision avoidance is inactive.
func WithCollisionQuerier(q CollisionQuerier) Option {
	return func(e *Engine) {
		e.querier = q
	}
}

// WithTargetResolver plugs the service resolving target handles.
func WithTargetResolver(r TargetResolver) Option {
	return func(e *Engine) {
		e.targets = r
	}
}

// WithWorkers bounds the number of batches computed at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.exec = NewExecutor(n)
	}
}

// Engine advances a flock one tick at a time.
//
// A tick runs in two phases. The parallel phase computes the flocking
// acceleration of every agent from a read-only view of the store. After the
// barrier, the sequential phase walks the agents in index order, adds the
// target force and the collision avoidance (the query service is only ever
// called from this goroutine), integrates and moves each agent.
//
// Only one tick may run at a time. Position, Forward and Snapshot are meant
// to be called between ticks by the goroutine driving them.
type Engine struct {
	store    *Store
	settings atomic.Pointer[Settings]
	querier  CollisionQuerier
	targets  TargetResolver
	logger   *zap.Logger

	exec  *Executor
	grid  *SpatialGrid
	work  *workingSet
	probe *Probe

	tickMu sync.Mutex
	closed bool
	frame  uint64

	statsMu sync.Mutex
	stats   TickStats
}

// NewEngine validates the store and the settings and prepares an engine.
func NewEngine(store *Store, settings *Settings, opts ...Option) (*Engine, error) {
	if settings == nil {
		return nil, ErrNoSettings
	}
	if store == nil || store.Len() == 0 {
		return nil, ErrEmptyPopulation
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := store.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		store:  store,
		logger: zap.NewNop(),
		exec:   NewExecutor(0),
		work:   newWorkingSet(store.Len()),
	}
	for _, opt := range opts {
		opt(e)
	}
	s := settings.Clone()
	e.settings.Store(s)
	e.probe = NewProbe(NewDirectionSampleSet(s.Collision.Precision), e.querier)
	e.grid = NewSpatialGrid(store.maxPerception(s))

	e.logger.Info("flock engine ready",
		zap.Int("agents", store.Len()),
		zap.Int("workers", e.exec.Workers()),
		zap.Int("samples", e.probe.Samples().Len()),
		zap.Bool("collisionQuerier", e.querier != nil),
		zap.Bool("targetResolver", e.targets != nil),
	)
	return e, nil
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings() Settings {
	return *e.settings.Load()
}

// UpdateSettings validates s and makes it the snapshot of the next tick.
// A tick in flight keeps the snapshot it started with.
func (e *Engine) UpdateSettings(s *Settings) error {
	if s == nil {
		return ErrNoSettings
	}
	if err := s.Validate(); err != nil {
		return err
	}
	e.settings.Store(s.Clone())
	e.logger.Debug("settings updated",
		zap.Float64("maxSpeed", s.MaxSpeed),
		zap.Float64("perceptionRadius", s.PerceptionRadius),
		zap.Bool("collision", s.Collision.Enabled),
	)
	return nil
}

// Tick advances the simulation by dt.
func (e *Engine) Tick(dt time.Duration) error {
	if dt < 0 {
		return ErrInvalidDelta
	}
	if !e.tickMu.TryLock() {
		return ErrTickInFlight
	}
	defer e.tickMu.Unlock()
	if e.closed {
		return ErrClosed
	}

	start := time.Now()
	s := e.settings.Load()
	if err := e.checkStore(); err != nil {
		return err
	}
	n := e.store.Len()
	useGrid := s.useGrid(n)
	e.prepare(s, useGrid)

	stats := TickStats{
		Frame:    e.frame,
		Agents:   n,
		Batches:  e.exec.Batches(n, s.ParallelBatchSize),
		UsedGrid: useGrid,
	}

	e.computeFlocking(s, useGrid)
	stats.ParallelDuration = time.Since(start)

	seconds := dt.Seconds()
	for i := range n {
		e.settle(i, s, seconds, &stats)
	}

	e.frame++
	stats.Duration = time.Since(start)
	e.statsMu.Lock()
	e.stats = stats
	e.statsMu.Unlock()
	return nil
}

// Drift moves every agent along its current velocity without recomputing
// any force. Drivers use it in place of Tick when dt is too large for a
// stable force step. The frame counter is not advanced.
func (e *Engine) Drift(dt time.Duration) error {
	if dt < 0 {
		return ErrInvalidDelta
	}
	if !e.tickMu.TryLock() {
		return ErrTickInFlight
	}
	defer e.tickMu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if err := e.checkStore(); err != nil {
		return err
	}
	seconds := dt.Seconds()
	for i, v := range e.store.Velocities {
		e.store.Positions[i] = e.store.Positions[i].Add(v.Mul(seconds))
	}
	return nil
}

func (e *Engine) checkStore() error {
	if err := e.store.Validate(); err != nil {
		return err
	}
	if e.store.Len() != len(e.work.acceleration) {
		return fmt.Errorf("%w: population changed from %d to %d", ErrSizeMismatch, len(e.work.acceleration), e.store.Len())
	}
	return nil
}

// prepare refreshes the shared read-only resources of the tick.
func (e *Engine) prepare(s *Settings, useGrid bool) {
	precision := s.Collision.Precision
	if precision == "" {
		precision = PrecisionMedium
	}
	if e.probe.Samples().Precision() != precision {
		e.probe = NewProbe(NewDirectionSampleSet(precision), e.querier)
		e.logger.Debug("direction samples rebuilt",
			zap.String("precision", string(precision)),
			zap.Int("samples", e.probe.Samples().Len()),
		)
	}
	if useGrid {
		e.grid.Rebuild(e.store.Positions, e.store.maxPerception(s))
	}
}

// computeFlocking is the parallel phase. Each batch reads the store and
// writes only its own slots of the working set.
func (e *Engine) computeFlocking(s *Settings, useGrid bool) {
	pos, vel := e.store.Positions, e.store.Velocities
	cos := cosHalfFOV(s.PerceptionAngle)

	e.exec.Run(len(pos), s.ParallelBatchSize, func(lo, hi int) {
		var buf []int32
		for i := lo; i < hi; i++ {
			e.work.reset(i)
			p := e.store.perception(i, s, cos)

			var nb Neighborhood
			if useGrid {
				nb, buf = e.grid.Aggregate(i, pos, vel, p, buf)
			} else {
				nb = Aggregate(i, pos, vel, p)
			}
			e.work.store(i, nb, FlockingAcceleration(pos[i], vel[i], nb, s))
		}
	})
}

// settle is the sequential step of agent i.
func (e *Engine) settle(i int, s *Settings, dt float64, stats *TickStats) {
	pos, vel := e.store.Positions[i], e.store.Velocities[i]
	accel := e.work.accel(i)
	stats.Neighbors += e.work.neighbors(i)

	if ref := e.store.Targets[i]; ref != NoTarget && e.targets != nil && s.TargetWeight != 0 {
		if target, ok := e.targets.ResolveTarget(ref); ok {
			accel = accel.Add(TargetAcceleration(pos, vel, target, s))
			stats.Targets++
		}
	}

	if e.probeDue(i, s) {
		avoid, res := e.probe.Avoid(pos, vel, s)
		accel = accel.Add(avoid)
		stats.Probes++
		stats.ProbeQueries += res.Queries
		stats.QueryErrors += res.Errors
		if res.Sample < 0 {
			stats.ProbesBlocked++
		}
	}

	v := Integrate(vel, accel, dt, s)
	e.store.Velocities[i] = v
	e.store.Positions[i] = pos.Add(v.Mul(dt))
	e.work.reset(i)
}

func (e *Engine) probeDue(i int, s *Settings) bool {
	return e.querier != nil &&
		s.Collision.Enabled &&
		e.store.CollisionEnabled[i] &&
		s.probeScheduled(i, e.frame)
}

// Frame returns the number of completed force ticks.
func (e *Engine) Frame() uint64 {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.frame
}

// Len returns the population size.
func (e *Engine) Len() int {
	return e.store.Len()
}

// Position returns the position of agent i.
func (e *Engine) Position(i int) mgl64.Vec3 {
	return e.store.Positions[i]
}

// Forward returns the unit heading of agent i.
func (e *Engine) Forward(i int) mgl64.Vec3 {
	return geometry.Normalize(e.store.Velocities[i])
}

// Snapshot copies the render view of every agent into dst, growing it as
// needed, and returns it.
func (e *Engine) Snapshot(dst []AgentView) []AgentView {
	n := e.store.Len()
	if cap(dst) < n {
		dst = make([]AgentView, n)
	}
	dst = dst[:n]
	for i := range n {
		dst[i] = AgentView{
			Position: e.store.Positions[i],
			Forward:  geometry.Normalize(e.store.Velocities[i]),
		}
	}
	return dst
}

// Stats returns the statistics of the last completed tick.
func (e *Engine) Stats() TickStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// Close waits for the tick in flight, if any, and disables the engine.
func (e *Engine) Close() error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.closed = true
	e.logger.Debug("flock engine closed", zap.Uint64("frames", e.frame))
	return nil
}
