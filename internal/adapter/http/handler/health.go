package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

// Checker reports whether a dependency is reachable
type Checker func(ctx context.Context) error

type Health struct {
	serviceName string
	checks      map[string]Checker
	log         logger.Logger
}

func NewHealth(serviceName string, checks map[string]Checker, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		checks:      checks,
		log:         log,
	}
}

// HealthCheck returns service info and the state of each dependency. 503 when one is down.
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(a.checks))
	for name, check := range a.checks {
		if err := check(checkCtx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	response := envelope{
		"status": "available",
		"system_info": map[string]string{
			"service-name": a.serviceName,
		},
		"dependencies": deps,
	}
	if status != http.StatusOK {
		response["status"] = "degraded"
	}

	if err := writeJSON(w, status, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
	}
}
