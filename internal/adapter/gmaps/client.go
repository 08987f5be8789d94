package gmaps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/internal/service/tracking"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

// Client uses the Google Maps platform for directions and reverse geocoding.
type Client struct {
	maps    *maps.Client
	timeout time.Duration
}

// New creates the client. baseURL is empty in production.
func New(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	const op = "gmaps.New"

	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Client{maps: c, timeout: timeout}, nil
}

func (c *Client) Name() string {
	return "googlemaps"
}

// Route asks for driving directions. With the "shortest" preference alternatives are
// requested and the shortest one is returned.
func (c *Client) Route(ctx context.Context, from, to models.Position, opts tracking.RouteOptions) (models.Route, error) {
	const op = "gmaps.Client.Route"

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	routes, _, err := c.maps.Directions(ctx, &maps.DirectionsRequest{
		Origin:       latLng(from.Latitude, from.Longitude),
		Destination:  latLng(to.Latitude, to.Longitude),
		Mode:         maps.TravelModeDriving,
		Alternatives: opts.Preference == "shortest",
	})
	if err != nil {
		return models.Route{}, wrap.Error(wrap.WithAction(ctx, types.ActionExternalServiceFailed), fmt.Errorf("%s: %w", op, classify(err)))
	}

	best := models.Route{DistanceKm: -1}
	for _, r := range routes {
		var meters int
		var dur time.Duration
		for _, leg := range r.Legs {
			meters += leg.Distance.Meters
			dur += leg.Duration
		}
		km := float64(meters) / 1000
		if best.DistanceKm < 0 || km < best.DistanceKm {
			best = models.Route{DistanceKm: km, DurationMin: dur.Round(time.Minute).Minutes()}
		}
	}
	if best.DistanceKm < 0 {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrRouteNotFound))
	}
	return best, nil
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	const op = "gmaps.Client.ReverseGeocode"

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	results, err := c.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return "", wrap.Error(wrap.WithAction(ctx, types.ActionExternalServiceFailed), fmt.Errorf("%s: %w", op, classify(err)))
	}
	for _, r := range results {
		if r.FormattedAddress != "" {
			return r.FormattedAddress, nil
		}
	}
	return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrAddressNotFound))
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func latLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", types.ErrProviderTimeout, err)
	}
	if strings.Contains(err.Error(), "ZERO_RESULTS") {
		return fmt.Errorf("%w: %w", types.ErrAddressNotFound, err)
	}
	return fmt.Errorf("%w: %w", types.ErrProviderUnavailable, err)
}
