package config

import (
	"fmt"
	"strings"
)

const mask = "********"

// PrintConfig prints the effective configuration with secrets masked.
func PrintConfig(cfg *Config) {
	var b strings.Builder

	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "  mode: %s\n", cfg.Mode)
	fmt.Fprintf(&b, "  log level: %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "  http port: %s\n", cfg.HTTP.Port)

	t := cfg.Tracking
	fmt.Fprintf(&b, "  tracking: source=%s distance=%s profile=%s preference=%s compare_route=%t\n",
		t.Source, t.DistanceProvider, t.Profile, t.Preference, t.CompareRoute)
	fmt.Fprintf(&b, "  sampling: max_accuracy=%.0fm fast=%s slow=%s threshold=%.0fkm/h\n",
		t.MaxAccuracyMeters, t.FastInterval, t.SlowInterval, t.FastSpeedKmh)
	fmt.Fprintf(&b, "  reconcile: cooldown=%s timeout=%s finalize=%s\n",
		t.Cooldown, t.RemoteTimeout, t.FinalizeTimeout)

	d := cfg.Database
	fmt.Fprintf(&b, "  database: %s@%s:%s/%s password=%s\n", d.User, d.Host, d.Port, d.Database, secret(d.Password))
	fmt.Fprintf(&b, "  redis: addr=%s db=%d password=%s\n", orNone(cfg.Redis.Addr), cfg.Redis.DB, secret(cfg.Redis.Password))
	fmt.Fprintf(&b, "  rabbitmq: %s:%s user=%s password=%s\n", orNone(cfg.RabbitMQ.Host), cfg.RabbitMQ.Port, cfg.RabbitMQ.User, secret(cfg.RabbitMQ.Password))
	fmt.Fprintf(&b, "  mqtt: %s client=%s password=%s\n", cfg.MQTT.BrokerURL, cfg.MQTT.ClientID, secret(cfg.MQTT.Password))
	fmt.Fprintf(&b, "  pending store: %s\n", cfg.Storage.PendingPath)

	e := cfg.ExternalAPI
	fmt.Fprintf(&b, "  geocode order: %s\n", strings.Join(e.GeocodeOrder, ","))
	fmt.Fprintf(&b, "  keys: openroute=%s locationiq=%s gmaps=%s\n",
		secret(e.OpenRouteAPIKey), secret(e.LocationIQAPIKey), secret(e.GoogleMapsAPIKey))
	fmt.Fprintf(&b, "  auth: jwt_secret=%s access_ttl=%s\n", secret(cfg.Auth.JWTSecret), cfg.Auth.AccessTokenTTL)

	fmt.Print(b.String())
}

func secret(s string) string {
	if s == "" {
		return "<empty>"
	}
	return mask
}

func orNone(s string) string {
	if s == "" {
		return "<disabled>"
	}
	return s
}
