package openroute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Temutjin2k/triplog/internal/adapter/external"
	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/internal/service/tracking"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

const DefaultBaseURL = "https://api.openrouteservice.org"

// Client talks to OpenRouteService directions and reverse geocoding.
type Client struct {
	apiKey         string
	baseURL        string
	http           *http.Client
	routeTimeout   time.Duration
	geocodeTimeout time.Duration
}

func New(apiKey, baseURL string, routeTimeout, geocodeTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		routeTimeout:   routeTimeout,
		geocodeTimeout: geocodeTimeout,
	}
}

func (c *Client) Name() string {
	return "openroute"
}

type directionsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Preference   string       `json:"preference,omitempty"`
	Geometry     bool         `json:"geometry"`
	Instructions bool         `json:"instructions"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

// Route returns the driving distance in km and duration in minutes between two positions.
func (c *Client) Route(ctx context.Context, from, to models.Position, opts tracking.RouteOptions) (models.Route, error) {
	const op = "openroute.Client.Route"
	ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)

	if c.apiKey == "" {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%s: api key not configured: %w", op, types.ErrProviderUnavailable))
	}

	profile := opts.Profile
	if profile == "" {
		profile = "driving-car"
	}

	body, err := json.Marshal(directionsRequest{
		Coordinates: [][2]float64{
			{from.Longitude, from.Latitude},
			{to.Longitude, to.Latitude},
		},
		Preference: opts.Preference,
	})
	if err != nil {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	ctx, cancel := withTimeout(ctx, c.routeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/directions/"+url.PathEscape(profile), bytes.NewReader(body))
	if err != nil {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var resp directionsResponse
	if err := external.DoJSON(c.http, req, &resp, types.ErrRouteNotFound); err != nil {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if len(resp.Routes) == 0 {
		return models.Route{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrRouteNotFound))
	}

	summary := resp.Routes[0].Summary
	return models.Route{
		DistanceKm:  math.Round(summary.Distance) / 1000,
		DurationMin: math.Round(summary.Duration / 60),
	}, nil
}

type reverseResponse struct {
	Features []struct {
		Properties struct {
			Name        string `json:"name"`
			HouseNumber string `json:"housenumber"`
			Street      string `json:"street"`
			Locality    string `json:"locality"`
			Region      string `json:"region"`
			Label       string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// ReverseGeocode returns at most three address parts of the closest address, street or locality.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	const op = "openroute.Client.ReverseGeocode"
	ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)

	if c.apiKey == "" {
		return "", wrap.Error(ctx, fmt.Errorf("%s: api key not configured: %w", op, types.ErrProviderUnavailable))
	}

	ctx, cancel := withTimeout(ctx, c.geocodeTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("point.lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("point.lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("size", "1")
	q.Set("layers", "address,street,locality")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	var resp reverseResponse
	if err := external.DoJSON(c.http, req, &resp, types.ErrAddressNotFound); err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if len(resp.Features) == 0 {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrAddressNotFound))
	}

	p := resp.Features[0].Properties
	var parts []string
	for _, v := range []string{p.Name, p.HouseNumber, p.Street, p.Locality, p.Region} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts[:min(3, len(parts))], ", "), nil
	}
	if p.Label != "" {
		return firstParts(p.Label, 2), nil
	}
	return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrAddressNotFound))
}

func firstParts(s string, n int) string {
	parts := strings.Split(s, ",")
	return strings.TrimSpace(strings.Join(parts[:min(n, len(parts))], ","))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
