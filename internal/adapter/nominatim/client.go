package nominatim

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Temutjin2k/triplog/internal/adapter/external"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Client is the OpenStreetMap Nominatim reverse geocoder. The public instance requires a
// descriptive User-Agent.
type Client struct {
	baseURL   string
	userAgent string
	language  string
	http      *http.Client
	timeout   time.Duration
}

func New(baseURL, userAgent, language string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		language:  language,
		http:      &http.Client{},
		timeout:   timeout,
	}
}

func (c *Client) Name() string {
	return "nominatim"
}

type reverseResponse struct {
	Error       string            `json:"error"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	const op = "nominatim.Client.ReverseGeocode"
	ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("addressdetails", "1")
	q.Set("zoom", "18")
	if c.language != "" {
		q.Set("accept-language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	var resp reverseResponse
	if err := external.DoJSON(c.http, req, &resp, types.ErrAddressNotFound); err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if resp.Error != "" {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %s: %w", op, resp.Error, types.ErrAddressNotFound))
	}

	addr := Format(resp.Address, resp.DisplayName)
	if addr == "" {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrAddressNotFound))
	}
	return addr, nil
}

// Format builds "road house_number, city" from address details and falls back to the
// first two components of the display name.
func Format(details map[string]string, displayName string) string {
	var b strings.Builder

	if road := first(details, "road", "pedestrian", "footway", "path"); road != "" {
		b.WriteString(road)
		if n := details["house_number"]; n != "" {
			b.WriteString(" " + n)
		}
	}
	if city := first(details, "city", "town", "village", "municipality", "suburb"); city != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(city)
	}
	if b.Len() > 0 {
		return b.String()
	}

	if displayName == "" {
		return ""
	}
	parts := strings.Split(displayName, ",")
	return strings.TrimSpace(strings.Join(parts[:min(2, len(parts))], ","))
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
