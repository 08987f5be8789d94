package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

func TestNewConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
tracking:
  source: mqtt
  cooldown: 2s
auth:
  jwt_secret: test-secret
database:
  host: db
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Cleanup(func() {
		for _, k := range []string{"TRACKING_SOURCE", "TRACKING_COOLDOWN", "AUTH_JWT_SECRET", "DATABASE_HOST"} {
			os.Unsetenv(k)
		}
	})

	if err := flag.Set("mode", string(types.TrackerService)); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	t.Cleanup(func() { _ = flag.Set("mode", "") })

	cfg, err := NewConfig(path)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Mode != types.TrackerService {
		t.Fatalf("mode = %q", cfg.Mode)
	}
	if cfg.Tracking.Source != types.SourceMQTT {
		t.Fatalf("source = %q", cfg.Tracking.Source)
	}
	if cfg.Tracking.Cooldown != 2*time.Second {
		t.Fatalf("cooldown = %v", cfg.Tracking.Cooldown)
	}
	if cfg.Tracking.FastInterval != 5*time.Second || cfg.Tracking.SlowInterval != 8*time.Second {
		t.Fatalf("sampling defaults not applied: %+v", cfg.Tracking)
	}
	if got := cfg.Database.GetDSN(); got != "postgres://triplog_user:triplog_pass@db:5432/triplog_db?sslmode=disable" {
		t.Fatalf("dsn = %q", got)
	}
	if cfg.Redis.Enabled() || cfg.RabbitMQ.Enabled() {
		t.Fatalf("optional backends must be disabled by default")
	}
	if len(cfg.ExternalAPI.GeocodeOrder) != 4 {
		t.Fatalf("geocode order = %v", cfg.ExternalAPI.GeocodeOrder)
	}
}

func TestNewConfigRequiresMode(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s")
	if err := flag.Set("mode", ""); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	if _, err := NewConfig(""); err == nil {
		t.Fatalf("expected error without mode")
	}
}

func TestSecretMasking(t *testing.T) {
	if secret("") != "<empty>" || secret("abc") != mask {
		t.Fatalf("unexpected masking")
	}
}
