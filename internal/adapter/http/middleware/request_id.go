package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Temutjin2k/triplog/internal/domain/types"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

// RequestID reuses the caller's X-Request-ID or generates one, and puts it into
// the context, the log context and the response header.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(types.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := types.WithRequestIDContext(r.Context(), id)
		ctx = wrap.WithRequestID(ctx, id)

		w.Header().Set(types.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
