package types

import "context"

type requestID struct{}

var requestIDKey = &requestID{}

// RequestIDHeader is echoed back on every response
const RequestIDHeader = "X-Request-ID"

// WithRequestIDContext stores the request id in ctx
func WithRequestIDContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id stored in ctx, empty if none
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
