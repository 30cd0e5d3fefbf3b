// Package simulation wires a configuration file into a running flock: the
// scene, the engine, the actor driving it and the tick telemetry.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-engine/internal/config"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/driver"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/scene"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"go.uber.org/zap"
)

const (
	systemName = "FlockWorld"
	actorName  = "flock"
)

// Simulation is a flock running inside its own actor system.
type Simulation struct {
	Config   *config.File
	Scene    *scene.Scene
	Engine   *flock.Engine
	System   actor.ActorSystem
	PID      *actor.PID
	Recorder *telemetry.Recorder

	logger *zap.Logger
}

// Start builds the scene described by cfg and spawns the flock actor.
// snapshots may be nil when nothing renders the flock.
func Start(ctx context.Context, cfg *config.File, logger *zap.Logger, snapshots chan<- *driver.Snapshot) (*Simulation, error) {
	sc, err := scene.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("building scene: %w", err)
	}

	spheres, boxes := sc.World.Counts()
	engine, err := flock.NewEngine(sc.Store, cfg.Settings,
		flock.WithLogger(logger.Named("engine")),
		flock.WithCollisionQuerier(sc.World),
		flock.WithTargetResolver(sc.Targets),
		flock.WithWorkers(cfg.Driver.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	logger.Info("scene ready",
		zap.Int("agents", sc.Store.Len()),
		zap.Int("targets", sc.Targets.Len()),
		zap.Int("spheres", spheres),
		zap.Int("boxes", boxes),
	)

	rec, err := telemetry.Open(cfg.Telemetry.OutputDir)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}

	system, err := actor.NewActorSystem(systemName,
		actor.WithLogger(actorLogger(cfg.Logging.Level)),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		_ = engine.Close()
		_ = rec.Close()
		return nil, fmt.Errorf("creating actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		_ = engine.Close()
		_ = rec.Close()
		return nil, fmt.Errorf("starting actor system: %w", err)
	}

	pid, err := system.Spawn(ctx, actorName, driver.NewFlockActor(engine, driver.Options{
		MaxDelta:     seconds(cfg.Driver.MaxDeltaSeconds),
		Policy:       driver.OverrunPolicy(cfg.Driver.OverrunPolicy),
		Recorder:     rec,
		SummaryEvery: cfg.Telemetry.SummaryEvery,
		Snapshots:    snapshots,
		Targets:      sc.Targets,
	}))
	if err != nil {
		_ = system.Stop(ctx)
		_ = engine.Close()
		_ = rec.Close()
		return nil, fmt.Errorf("spawning flock actor: %w", err)
	}

	return &Simulation{
		Config:   cfg,
		Scene:    sc,
		Engine:   engine,
		System:   system,
		PID:      pid,
		Recorder: rec,
		logger:   logger,
	}, nil
}

// actorLogger keeps the actor system quiet unless the application logs at
// info level or below.
func actorLogger(level string) golog.Logger {
	switch level {
	case "warn", "error":
		return golog.DiscardLogger
	default:
		return golog.DefaultLogger
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// TickInterval is the fixed step derived from the configured tick rate.
func (s *Simulation) TickInterval() time.Duration {
	return seconds(1 / s.Config.Driver.TickRate)
}

// Run asks for n ticks of TickInterval, as fast as the engine allows, and
// returns the last frame reached. It stops early when ctx is done.
func (s *Simulation) Run(ctx context.Context, n int, timeout time.Duration) (uint64, error) {
	dt := s.TickInterval()
	var frame uint64
	for i := range n {
		if err := ctx.Err(); err != nil {
			return frame, err
		}
		f, err := driver.Tick(ctx, s.PID, dt, timeout)
		if err != nil {
			return frame, fmt.Errorf("tick %d: %w", i, err)
		}
		frame = f
	}
	return frame, nil
}

// Stop stops the actor system, which closes the engine and the recorder,
// and logs the ticks not covered by a periodic summary yet.
func (s *Simulation) Stop(ctx context.Context) error {
	err := s.System.Stop(ctx)
	if sum := s.Recorder.Summary(); sum.Ticks > 0 {
		s.logger.Info("final tick summary", sum.Fields()...)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stopping actor system: %w", err)
	}
	return nil
}
