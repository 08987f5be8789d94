package wrap

import (
	"context"
	"errors"
)

// errorWithLogCtx carries the log context of the place where the error happened
type errorWithLogCtx struct {
	err    error
	logCtx LogCtx
}

func (e *errorWithLogCtx) Error() string {
	return e.err.Error()
}

func (e *errorWithLogCtx) Unwrap() error {
	return e.err
}

// Error attaches the LogCtx of ctx to err. An already wrapped error gets its context replaced.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var e *errorWithLogCtx
	if errors.As(err, &e) {
		return &errorWithLogCtx{err: err, logCtx: mergeLogCtx(e.logCtx, FromContext(ctx))}
	}

	return &errorWithLogCtx{err: err, logCtx: FromContext(ctx)}
}

// ErrorCtx returns ctx enriched with the LogCtx carried by err, if any.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *errorWithLogCtx
	if errors.As(err, &e) && e != nil {
		return WithLogCtx(ctx, e.logCtx)
	}
	return ctx
}

func mergeLogCtx(old, cur LogCtx) LogCtx {
	if cur.Action == "" {
		cur.Action = old.Action
	}
	if cur.UserID == "" {
		cur.UserID = old.UserID
	}
	if cur.RequestID == "" {
		cur.RequestID = old.RequestID
	}
	if cur.TripID == "" {
		cur.TripID = old.TripID
	}
	return cur
}
