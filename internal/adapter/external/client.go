package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

const maxErrorBody = 512

// DoJSON sends req and decodes a 2xx JSON body into out.
// Transport errors map to ErrProviderTimeout or ErrProviderUnavailable, 404 maps to notFound.
func DoJSON(client *http.Client, req *http.Request, out any, notFound error) error {
	resp, err := client.Do(req)
	if err != nil {
		return classify(req.Context(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusNotFound && notFound != nil {
			return fmt.Errorf("%w: status %d", notFound, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d: %s", types.ErrProviderUnavailable, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", types.ErrProviderUnavailable, err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", types.ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %w", types.ErrProviderUnavailable, err)
}
