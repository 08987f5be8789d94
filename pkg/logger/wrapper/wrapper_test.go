package wrap

import (
	"context"
	"errors"
	"testing"
)

func TestWithLogCtxMerge(t *testing.T) {
	ctx := WithUserID(context.Background(), "u1")
	ctx = WithTripID(ctx, "t1")
	ctx = WithLogCtx(ctx, LogCtx{Action: "stop"})

	lc := FromContext(ctx)
	if lc.UserID != "u1" || lc.TripID != "t1" || lc.Action != "stop" {
		t.Fatalf("unexpected log ctx: %+v", lc)
	}
}

func TestErrorCarriesContext(t *testing.T) {
	base := errors.New("boom")
	ctx := WithAction(WithTripID(context.Background(), "t1"), "save")

	err := Error(ctx, base)
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error lost original")
	}

	got := FromContext(ErrorCtx(context.Background(), err))
	if got.TripID != "t1" || got.Action != "save" {
		t.Fatalf("unexpected log ctx from error: %+v", got)
	}

	// rewrapping keeps fields not overridden
	err = Error(WithAction(context.Background(), "retry"), err)
	got = FromContext(ErrorCtx(context.Background(), err))
	if got.TripID != "t1" || got.Action != "retry" {
		t.Fatalf("unexpected log ctx after rewrap: %+v", got)
	}

	if Error(ctx, nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}
