package locationIQ

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Temutjin2k/triplog/internal/adapter/external"
	"github.com/Temutjin2k/triplog/internal/adapter/nominatim"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

const DefaultBaseURL = "https://us1.locationiq.com"

type LocationIQClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(apiKey, baseURL string, timeout time.Duration) *LocationIQClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &LocationIQClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *LocationIQClient) Name() string {
	return "locationiq"
}

// LocationIQ answers in the Nominatim format
type AddressPayload struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

func (c *LocationIQClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	const op = "LocationIQClient.ReverseGeocode"

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	var payload AddressPayload
	if err := external.DoJSON(c.http, req, &payload, types.ErrAddressNotFound); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: request to LocationIQ failed: %w", op, err))
	}

	addr := nominatim.Format(payload.Address, payload.DisplayName)
	if addr == "" {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrAddressNotFound))
	}
	return addr, nil
}
