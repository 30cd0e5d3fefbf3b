package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var ErrRejected = errors.New("driver: request rejected")

// Tick asks the flock actor to advance by dt and returns the frame counter
// after the request.
func Tick(ctx context.Context, pid *actor.PID, dt, timeout time.Duration) (uint64, error) {
	resp, err := actor.Ask(ctx, pid, durationpb.New(dt), timeout)
	if err != nil {
		return 0, fmt.Errorf("tick request failed: %w", err)
	}
	switch r := resp.(type) {
	case *wrapperspb.UInt64Value:
		return r.GetValue(), nil
	case *wrapperspb.StringValue:
		return 0, fmt.Errorf("%w: %s", ErrRejected, r.GetValue())
	default:
		return 0, fmt.Errorf("unexpected tick reply %T", resp)
	}
}

// Patch asks the flock actor to merge patch into its settings.
func Patch(ctx context.Context, pid *actor.PID, patch map[string]any, timeout time.Duration) error {
	msg, err := structpb.NewStruct(patch)
	if err != nil {
		return fmt.Errorf("failed to encode settings patch: %w", err)
	}
	resp, err := actor.Ask(ctx, pid, msg, timeout)
	if err != nil {
		return fmt.Errorf("patch request failed: %w", err)
	}
	switch r := resp.(type) {
	case *wrapperspb.BoolValue:
		return nil
	case *wrapperspb.StringValue:
		return fmt.Errorf("%w: %s", ErrRejected, r.GetValue())
	default:
		return fmt.Errorf("unexpected patch reply %T", resp)
	}
}

// SendPatch is the fire and forget form of Patch, for callers that cannot
// wait such as a render loop.
func SendPatch(ctx context.Context, pid *actor.PID, patch map[string]any) error {
	msg, err := structpb.NewStruct(patch)
	if err != nil {
		return fmt.Errorf("failed to encode settings patch: %w", err)
	}
	return actor.Tell(ctx, pid, msg)
}

// SendTick is the fire and forget form of Tick.
func SendTick(ctx context.Context, pid *actor.PID, dt time.Duration) error {
	return actor.Tell(ctx, pid, durationpb.New(dt))
}
