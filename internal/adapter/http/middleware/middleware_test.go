package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

type fakeAuth struct{}

func (fakeAuth) RoleCheck(ctx context.Context, token string) (*models.User, error) {
	switch token {
	case "driver":
		return &models.User{ID: "u1", Role: types.DriverRole}, nil
	case "admin":
		return &models.User{ID: "a1", Role: types.AdminRole}, nil
	}
	return nil, types.ErrInvalidToken
}

func newMiddleware() *Middleware {
	return NewMiddleware(fakeAuth{}, logger.Discard())
}

func TestAuth(t *testing.T) {
	m := newMiddleware()

	var seen *models.User
	h := m.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = models.UserFromContext(r.Context())
		if got := wrap.FromContext(r.Context()).UserID; seen != nil && !seen.IsAnonymous() && got != seen.ID {
			t.Errorf("log context user id %q, want %q", got, seen.ID)
		}
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid", "Bearer driver", http.StatusOK, "u1"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"bad header", "Token driver", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/trips/current", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if seen == nil {
					t.Fatalf("handler not called")
				}
				if tt.wantUser == "" && !seen.IsAnonymous() {
					t.Fatalf("expected anonymous user")
				}
				if tt.wantUser != "" && seen.ID != tt.wantUser {
					t.Fatalf("user %q, want %q", seen.ID, tt.wantUser)
				}
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	m := newMiddleware()
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	h := m.Auth(m.RequireRoles(ok, types.AdminRole))

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer driver", http.StatusForbidden},
		{"Bearer admin", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/trips/pending", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("%q: status %d, want %d", tt.header, rec.Code, tt.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	m := newMiddleware()

	var fromCtx string
	h := m.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = types.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(types.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if fromCtx != "req-42" || rec.Header().Get(types.RequestIDHeader) != "req-42" {
		t.Fatalf("expected caller request id to be kept, got ctx=%q header=%q", fromCtx, rec.Header().Get(types.RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if fromCtx == "" || rec.Header().Get(types.RequestIDHeader) != fromCtx {
		t.Fatalf("expected generated request id, got ctx=%q header=%q", fromCtx, rec.Header().Get(types.RequestIDHeader))
	}
}

func TestRecover(t *testing.T) {
	m := newMiddleware()
	h := m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
}
