package microservices

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/triplog/config"
	"github.com/Temutjin2k/triplog/internal/adapter/gmaps"
	"github.com/Temutjin2k/triplog/internal/adapter/locationIQ"
	"github.com/Temutjin2k/triplog/internal/adapter/nominatim"
	"github.com/Temutjin2k/triplog/internal/adapter/openroute"
	rediscache "github.com/Temutjin2k/triplog/internal/adapter/redis"
	"github.com/Temutjin2k/triplog/internal/service/address"
	"github.com/Temutjin2k/triplog/internal/service/tracking"
	"github.com/Temutjin2k/triplog/pkg/logger"
)

func trackingConfig(c config.TrackingConfig) tracking.Config {
	return tracking.Config{
		MaxAccuracyMeters:   c.MaxAccuracyMeters,
		FastSpeedKmh:        c.FastSpeedKmh,
		FastInterval:        c.FastInterval,
		SlowInterval:        c.SlowInterval,
		DeviceSpeedAccuracy: c.DeviceSpeedAccuracy,
		SpeedWindow:         c.SpeedWindow,
		Cooldown:            c.Cooldown,
		RemoteTimeout:       c.RemoteTimeout,
		TickInterval:        c.TickInterval,
		AddressPause:        c.AddressPause,
		Profile:             c.Profile,
		Preference:          c.Preference,
		CompareRoute:        c.CompareRoute,
		Purpose:             c.Purpose,
		FinalizeTimeout:     c.FinalizeTimeout,
	}
}

// geoStack holds the remote routing provider and the reverse geocoding chain
type geoStack struct {
	distance  tracking.DistanceProvider
	addresses *address.Resolver
	providers []string
}

// newGeoStack builds providers from the configured keys. A provider without credentials is skipped;
// rdb may be nil, otherwise every geocoder is wrapped in the redis cache.
func newGeoStack(ctx context.Context, cfg config.Config, rdb *goredis.Client, log logger.Logger) (*geoStack, error) {
	api := cfg.ExternalAPI

	var ors *openroute.Client
	if api.OpenRouteAPIKey != "" {
		ors = openroute.New(api.OpenRouteAPIKey, api.OpenRouteURL, cfg.Tracking.RemoteTimeout, api.GeocodeTimeout)
	}

	var gm *gmaps.Client
	if api.GoogleMapsAPIKey != "" {
		var err error
		gm, err = gmaps.New(api.GoogleMapsAPIKey, api.GoogleMapsURL, cfg.Tracking.RemoteTimeout)
		if err != nil {
			return nil, fmt.Errorf("google maps client: %w", err)
		}
	}

	stack := &geoStack{}

	var providers []address.Provider
	for _, name := range api.GeocodeOrder {
		var p address.Provider
		switch name {
		case "openroute":
			if ors != nil {
				p = ors
			}
		case "nominatim":
			p = nominatim.New(api.NominatimURL, api.NominatimAgent, api.NominatimLanguage, api.GeocodeTimeout)
		case "locationiq":
			if api.LocationIQAPIKey != "" {
				p = locationIQ.New(api.LocationIQAPIKey, api.LocationIQURL, api.GeocodeTimeout)
			}
		case "gmaps":
			if gm != nil {
				p = gm
			}
		}
		if p == nil {
			log.Warn(ctx, "geocode provider skipped, no credentials", "provider", name)
			continue
		}
		if rdb != nil {
			p = rediscache.NewCachedGeocoder(p, rdb, cfg.Redis.GeocodeTTL, log)
		}
		providers = append(providers, p)
		stack.providers = append(stack.providers, p.Name())
	}
	stack.addresses = address.NewResolver(log, providers...)

	switch {
	case cfg.Tracking.DistanceProvider == "openroute" && ors != nil:
		stack.distance = ors
	case cfg.Tracking.DistanceProvider == "gmaps" && gm != nil:
		stack.distance = gm
	default:
		log.Warn(ctx, "no remote distance provider, trips use great-circle distance", "provider", cfg.Tracking.DistanceProvider)
	}

	return stack, nil
}
