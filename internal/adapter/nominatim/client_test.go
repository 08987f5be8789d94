package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		details map[string]string
		display string
		want    string
	}{
		{"road number city", map[string]string{"road": "Mannerheimintie", "house_number": "5", "city": "Helsinki"}, "", "Mannerheimintie 5, Helsinki"},
		{"footway and village", map[string]string{"footway": "Rantapolku", "village": "Nuuksio"}, "", "Rantapolku, Nuuksio"},
		{"city only", map[string]string{"town": "Porvoo"}, "", "Porvoo"},
		{"display name fallback", map[string]string{}, "Kamppi, Helsinki, Uusimaa, Suomi", "Kamppi, Helsinki"},
		{"nothing", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.details, tt.display); got != tt.want {
				t.Fatalf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "triplog-test/1.0" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Query().Get("accept-language") != "fi" {
			t.Errorf("language not passed")
		}
		if r.URL.Query().Get("lat") == "0" {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		w.Write([]byte(`{"display_name":"x","address":{"road":"Aleksanterinkatu","house_number":"2","city":"Helsinki"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "triplog-test/1.0", "fi", time.Second)

	got, err := c.ReverseGeocode(context.Background(), 60.1699, 24.9384)
	if err != nil || got != "Aleksanterinkatu 2, Helsinki" {
		t.Fatalf("got %q, %v", got, err)
	}

	if _, err := c.ReverseGeocode(context.Background(), 0, 0); !errors.Is(err, types.ErrAddressNotFound) {
		t.Fatalf("err = %v", err)
	}
}
