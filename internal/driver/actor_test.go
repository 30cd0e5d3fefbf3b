package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
)

func newEngine(t *testing.T) (*flock.Engine, *flock.Store) {
	t.Helper()
	store := flock.NewStore(3)
	for i := range 3 {
		store.Positions[i] = mgl64.Vec3{float64(i) * 10, 0, 0}
		store.Velocities[i] = mgl64.Vec3{0, 0, 3}
	}
	s := flock.DefaultSettings()
	s.Collision.Enabled = false
	e, err := flock.NewEngine(store, s)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, store
}

func TestFlockActor_Advance(t *testing.T) {
	tests := []struct {
		name       string
		policy     OverrunPolicy
		dt         time.Duration
		want       Outcome
		wantFrame  uint64
		wantZMoved float64
	}{
		{"NormalTick", PolicyDrift, 50 * time.Millisecond, Ticked, 1, 0.15},
		{"OverrunDrifts", PolicyDrift, 500 * time.Millisecond, Drifted, 0, 1.5},
		{"OverrunSkipped", PolicySkip, 500 * time.Millisecond, Skipped, 0, 0},
		{"AtTheLimit", PolicySkip, 100 * time.Millisecond, Ticked, 1, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newEngine(t)
			f := NewFlockActor(e, Options{MaxDelta: 100 * time.Millisecond, Policy: tt.policy})

			got, err := f.advance(tt.dt)
			if err != nil {
				t.Fatalf("advance: %v", err)
			}
			if got != tt.want {
				t.Errorf("outcome = %s; want %s", got, tt.want)
			}
			if e.Frame() != tt.wantFrame {
				t.Errorf("Frame = %d; want %d", e.Frame(), tt.wantFrame)
			}
			if z := store.Positions[0].Z(); z < tt.wantZMoved-1e-9 || z > tt.wantZMoved+1e-9 {
				t.Errorf("agent moved to z=%v; want %v", z, tt.wantZMoved)
			}
		})
	}
}

func TestFlockActor_AdvanceError(t *testing.T) {
	e, _ := newEngine(t)
	f := NewFlockActor(e, Options{})
	if _, err := f.advance(-time.Second); !errors.Is(err, flock.ErrInvalidDelta) {
		t.Errorf("advance(-1s) = %v; want ErrInvalidDelta", err)
	}
}

func TestFlockActor_Patch(t *testing.T) {
	e, _ := newEngine(t)
	f := NewFlockActor(e, Options{})

	msg, err := structpb.NewStruct(map[string]any{"maxSpeed": 9, "alignWeight": 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.patch(msg); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if s := e.Settings(); s.MaxSpeed != 9 || s.AlignWeight != 0.5 || s.Collision.Enabled {
		t.Errorf("settings after patch = %+v", s)
	}

	bad, _ := structpb.NewStruct(map[string]any{"minSpeed": 50})
	if err := f.patch(bad); !errors.Is(err, flock.ErrInvalidSettings) {
		t.Errorf("patch(minSpeed 50) = %v; want ErrInvalidSettings", err)
	}
	if e.Settings().MinSpeed != 2 {
		t.Error("rejected patch must leave the settings alone")
	}
}

type fixedPoints []mgl64.Vec3

func (p fixedPoints) Points() []mgl64.Vec3 { return p }

func TestFlockActor_PushSnapshotNeverBlocks(t *testing.T) {
	e, _ := newEngine(t)
	ch := make(chan *Snapshot, 1)
	f := NewFlockActor(e, Options{Snapshots: ch, Targets: fixedPoints{{1, 2, 3}}})

	f.pushSnapshot(Ticked)
	f.pushSnapshot(Ticked) // channel full, dropped

	snap := <-ch
	if len(snap.Agents) != 3 || len(snap.Targets) != 1 {
		t.Errorf("snapshot has %d agents and %d targets", len(snap.Agents), len(snap.Targets))
	}
	select {
	case <-ch:
		t.Error("second snapshot should have been dropped")
	default:
	}
}

func TestFlockActor_ThroughActorSystem(t *testing.T) {
	ctx := context.Background()
	system, err := actor.NewActorSystem("FlockTest", actor.WithLogger(golog.DiscardLogger))
	if err != nil {
		t.Fatalf("NewActorSystem: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	e, _ := newEngine(t)
	rec := telemetry.New(nil)
	pid, err := system.Spawn(ctx, "flock", NewFlockActor(e, Options{
		MaxDelta: 100 * time.Millisecond,
		Policy:   PolicySkip,
		Recorder: rec,
	}))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	for i := 1; i <= 3; i++ {
		frame, err := Tick(ctx, pid, 16*time.Millisecond, time.Second)
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if frame != uint64(i) {
			t.Errorf("frame = %d; want %d", frame, i)
		}
	}
	if frame, err := Tick(ctx, pid, time.Second, time.Second); err != nil || frame != 3 {
		t.Errorf("skipped Tick = %d, %v; want 3, nil", frame, err)
	}
	if _, err := Tick(ctx, pid, -time.Second, time.Second); !errors.Is(err, ErrRejected) {
		t.Errorf("negative Tick = %v; want ErrRejected", err)
	}

	if err := Patch(ctx, pid, map[string]any{"maxSpeed": 7}, time.Second); err != nil {
		t.Errorf("Patch: %v", err)
	}
	if err := Patch(ctx, pid, map[string]any{"neighborSearch": "octree"}, time.Second); !errors.Is(err, ErrRejected) {
		t.Errorf("bad Patch = %v; want ErrRejected", err)
	}

	if err := system.Kill(ctx, "flock"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if s := rec.Summary(); s.Ticks != 3 {
		t.Errorf("recorded %d ticks; want 3", s.Ticks)
	}
	if e.Settings().MaxSpeed != 7 {
		t.Errorf("MaxSpeed = %v; want 7 after the patch", e.Settings().MaxSpeed)
	}
}
