package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
)

// Provider is one reverse geocoding backend.
type Provider interface {
	Name() string
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// Resolver tries providers in order and falls back to formatted coordinates.
type Resolver struct {
	providers []Provider
	log       logger.Logger
}

func NewResolver(log logger.Logger, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, log: log}
}

// Resolve returns the first non-empty provider answer. It never fails.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) string {
	for _, p := range r.providers {
		addr, err := p.ReverseGeocode(ctx, lat, lng)
		addr = strings.TrimSpace(addr)
		if err == nil && addr == "" {
			err = types.ErrAddressNotFound
		}
		metrics.RecordGeocode(p.Name(), err)
		if err == nil {
			return addr
		}

		r.log.Warn(wrap.WithAction(wrap.ErrorCtx(ctx, err), types.ActionGeocodeFallback), "reverse geocode failed, trying next provider",
			"provider", p.Name(),
			"error", err.Error(),
		)
	}

	metrics.RecordGeocode("coordinates", nil)
	return FormatCoordinates(lat, lng)
}

// FormatCoordinates is the address of last resort.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}
