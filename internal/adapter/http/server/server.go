package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/triplog/internal/adapter/http/handler"
	"github.com/Temutjin2k/triplog/internal/adapter/http/middleware"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

const (
	serverIPAddress = "%s:%s"
	serviceName     = "triplog"
)

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

type handlers struct {
	trip    *handler.Trip
	health  *handler.Health
	tracker http.Handler
}

// New builds the tracking API. tracker serves the websocket endpoint.
func New(
	port string,
	tripService handler.TripService,
	tracker http.Handler,
	authService middleware.AuthService,
	checks map[string]handler.Checker,
	logger logger.Logger,
) (*API, error) {
	if authService == nil {
		return nil, errors.New("auth service is required")
	}
	if tripService == nil {
		return nil, errors.New("trip service is required")
	}

	api := &API{
		mux: http.NewServeMux(),
		routes: &handlers{
			trip:    handler.NewTrip(tripService, logger),
			health:  handler.NewHealth(serviceName, checks, logger),
			tracker: tracker,
		},
		m:    middleware.NewMiddleware(authService, logger),
		addr: fmt.Sprintf(serverIPAddress, "0.0.0.0", port),
		log:  logger,
	}

	setupRoutes(api.mux, api.routes, api.m)

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// Handler exposes the full middleware chain, used by tests
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Logging(a.m.Metrics(serviceName)(a.m.Auth(a.mux)))))
}
