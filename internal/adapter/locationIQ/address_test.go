package locationIQ

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reverse" || r.URL.Query().Get("key") != "secret" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.URL.Query().Get("lat") == "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"display_name":"Hämeenkatu 10, Tampere, Finland","address":{}}`))
	}))
	defer srv.Close()

	c := New("secret", srv.URL, time.Second)

	got, err := c.ReverseGeocode(context.Background(), 61.4978, 23.761)
	if err != nil || got != "Hämeenkatu 10, Tampere" {
		t.Fatalf("got %q, %v", got, err)
	}

	if _, err := c.ReverseGeocode(context.Background(), 1, 1); !errors.Is(err, types.ErrAddressNotFound) {
		t.Fatalf("err = %v", err)
	}
}
