// Package driver runs a flock engine inside a goakt actor. The mailbox
// serialises ticks and settings patches, so no tick ever overlaps another
// or a settings swap.
package driver

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/config"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// OverrunPolicy decides what happens to a frame whose delta exceeds the
// maximum stable step.
type OverrunPolicy string

const (
	PolicyDrift OverrunPolicy = config.OverrunDrift
	PolicySkip  OverrunPolicy = config.OverrunSkip
)

// Outcome tells what a tick request did.
type Outcome int

const (
	Ticked Outcome = iota
	Drifted
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Ticked:
		return "ticked"
	case Drifted:
		return "drifted"
	default:
		return "skipped"
	}
}

// Snapshot is the render view pushed after every tick. The receiver owns
// its slices.
type Snapshot struct {
	Frame    uint64
	Outcome  Outcome
	Agents   []flock.AgentView
	Targets  []mgl64.Vec3
	Settings flock.Settings
	Stats    flock.TickStats
}

// TargetSource lists the current seek points for the render view.
type TargetSource interface {
	Points() []mgl64.Vec3
}

// Options tune a FlockActor.
type Options struct {
	MaxDelta     time.Duration // 0 disables the overrun check
	Policy       OverrunPolicy
	Recorder     *telemetry.Recorder // optional
	SummaryEvery int                 // ticks between summary log lines, 0 disables them
	Snapshots    chan<- *Snapshot    // optional
	Targets      TargetSource        // optional
}

// FlockActor owns an engine and advances it on *durationpb.Duration
// messages. A *structpb.Struct message patches the settings.
type FlockActor struct {
	engine *flock.Engine
	opts   Options

	ticks   uint64
	drifts  uint64
	skipped uint64
}

var _ actor.Actor = (*FlockActor)(nil)

// NewFlockActor wraps engine. The actor closes the engine when it stops.
func NewFlockActor(engine *flock.Engine, opts Options) *FlockActor {
	if opts.Policy == "" {
		opts.Policy = PolicyDrift
	}
	return &FlockActor{engine: engine, opts: opts}
}

func (f *FlockActor) PreStart(ctx *actor.Context) error {
	if f.engine == nil {
		return errors.New("flock actor needs an engine")
	}
	ctx.ActorSystem().Logger().Infof("Flock %s ready: %d agents, overrun policy %s (max delta %s)",
		ctx.ActorName(), f.engine.Len(), f.opts.Policy, f.opts.MaxDelta)
	return nil
}

func (f *FlockActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("%s started", ctx.Self().Name())

	case *durationpb.Duration:
		if err := msg.CheckValid(); err != nil {
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		outcome, err := f.advance(msg.AsDuration())
		if err != nil {
			ctx.Logger().Errorf("tick failed: %v", err)
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		if outcome == Ticked {
			f.record(ctx)
		}
		f.pushSnapshot(outcome)
		ctx.Response(wrapperspb.UInt64(f.engine.Frame()))

	case *structpb.Struct:
		if err := f.patch(msg); err != nil {
			ctx.Logger().Warnf("settings patch rejected: %v", err)
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		ctx.Response(wrapperspb.Bool(true))

	default:
		ctx.Unhandled()
	}
}

func (f *FlockActor) PostStop(ctx *actor.Context) error {
	logger := ctx.ActorSystem().Logger()
	logger.Infof("Flock %s stopping after %d ticks, %d drifts, %d skipped frames",
		ctx.ActorName(), f.ticks, f.drifts, f.skipped)
	var errs []error
	if err := f.engine.Close(); err != nil && !errors.Is(err, flock.ErrClosed) {
		errs = append(errs, err)
	}
	if r := f.opts.Recorder; r != nil {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}

// advance applies one frame delta according to the overrun policy.
func (f *FlockActor) advance(dt time.Duration) (Outcome, error) {
	if f.opts.MaxDelta > 0 && dt > f.opts.MaxDelta {
		if f.opts.Policy == PolicySkip {
			f.skipped++
			return Skipped, nil
		}
		if err := f.engine.Drift(dt); err != nil {
			return Drifted, err
		}
		f.drifts++
		return Drifted, nil
	}
	if err := f.engine.Tick(dt); err != nil {
		return Ticked, err
	}
	f.ticks++
	return Ticked, nil
}

func (f *FlockActor) patch(msg *structpb.Struct) error {
	current := f.engine.Settings()
	next, err := config.ApplyPatch(&current, msg.AsMap())
	if err != nil {
		return err
	}
	return f.engine.UpdateSettings(next)
}

func (f *FlockActor) record(ctx *actor.ReceiveContext) {
	r := f.opts.Recorder
	if r == nil {
		return
	}
	if err := r.Record(f.engine.Stats()); err != nil {
		ctx.Logger().Warnf("telemetry: %v", err)
	}
	if every := f.opts.SummaryEvery; every > 0 && f.ticks%uint64(every) == 0 {
		s := r.Summary()
		ctx.Logger().Infof("📊 %d ticks: mean %.3fms, p95 %.3fms, max %.3fms | probes %d (%d blocked, %d query errors)",
			s.Ticks, s.MeanMs, s.P95Ms, s.MaxMs, s.Probes, s.ProbesBlocked, s.QueryErrors)
		r.Reset()
	}
}

// pushSnapshot hands the render view over without ever blocking the tick.
func (f *FlockActor) pushSnapshot(outcome Outcome) {
	if f.opts.Snapshots == nil {
		return
	}
	snap := &Snapshot{
		Frame:    f.engine.Frame(),
		Outcome:  outcome,
		Agents:   f.engine.Snapshot(nil),
		Settings: f.engine.Settings(),
		Stats:    f.engine.Stats(),
	}
	if f.opts.Targets != nil {
		snap.Targets = f.opts.Targets.Points()
	}
	select {
	case f.opts.Snapshots <- snap:
	default:
		// renderer busy, skip frame
	}
}
