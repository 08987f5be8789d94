package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode (tracker, resubmit)")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode

		Tracking    TrackingConfig
		HTTP        HTTPConfig
		Database    DatabaseConfig
		Redis       RedisConfig
		RabbitMQ    RabbitMQConfig
		MQTT        MQTTConfig
		Storage     StorageConfig
		ExternalAPI ExternalAPIConfig
		Auth        Auth
		LogLevel    string `env:"LOG_LEVEL" default:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	}

	TrackingConfig struct {
		Source              types.SourceKind `env:"TRACKING_SOURCE" default:"websocket" validate:"oneof=websocket rabbitmq mqtt"`
		MaxAccuracyMeters   float64          `env:"TRACKING_MAX_ACCURACY" default:"300" validate:"gt=0"`
		FastSpeedKmh        float64          `env:"TRACKING_FAST_SPEED_KMH" default:"30" validate:"gt=0"`
		FastInterval        time.Duration    `env:"TRACKING_FAST_INTERVAL" default:"5s"`
		SlowInterval        time.Duration    `env:"TRACKING_SLOW_INTERVAL" default:"8s"`
		DeviceSpeedAccuracy float64          `env:"TRACKING_DEVICE_SPEED_ACCURACY" default:"50"`
		SpeedWindow         int              `env:"TRACKING_SPEED_WINDOW" default:"5" validate:"gt=0"`
		Cooldown            time.Duration    `env:"TRACKING_COOLDOWN" default:"1s"`
		RemoteTimeout       time.Duration    `env:"TRACKING_REMOTE_TIMEOUT" default:"10s" validate:"gt=0"`
		TickInterval        time.Duration    `env:"TRACKING_TICK_INTERVAL" default:"1s"`
		AddressPause        time.Duration    `env:"TRACKING_ADDRESS_PAUSE" default:"1s"`
		FinalizeTimeout     time.Duration    `env:"TRACKING_FINALIZE_TIMEOUT" default:"2m" validate:"gt=0"`
		Profile             string           `env:"TRACKING_PROFILE" default:"driving-car"`
		Preference          string           `env:"TRACKING_PREFERENCE" default:"shortest"`
		CompareRoute        bool             `env:"TRACKING_COMPARE_ROUTE" default:"true"`
		Purpose             string           `env:"TRACKING_PURPOSE" default:"työ"`
		DistanceProvider    string           `env:"TRACKING_DISTANCE_PROVIDER" default:"openroute" validate:"oneof=openroute gmaps none"`
	}

	HTTPConfig struct {
		Port string `env:"HTTP_PORT" default:"8080"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"triplog_user"`
		Password string `env:"DATABASE_PASSWORD" default:"triplog_pass"`
		Database string `env:"DATABASE_DATABASE" default:"triplog_db"`

		MaxConns int32 `env:"DATABASE_MAXCONNS" default:"10"`
	}

	// RedisConfig is optional, an empty address disables the geocode cache
	RedisConfig struct {
		Addr       string        `env:"REDIS_ADDR"`
		Password   string        `env:"REDIS_PASSWORD"`
		DB         int           `env:"REDIS_DB" default:"0"`
		GeocodeTTL time.Duration `env:"REDIS_GEOCODE_TTL" default:"168h"`
	}

	// RabbitMQConfig is optional, an empty host disables trip events and the rabbitmq source
	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	MQTTConfig struct {
		BrokerURL   string `env:"MQTT_BROKER_URL" default:"tcp://localhost:1883"`
		ClientID    string `env:"MQTT_CLIENT_ID" default:"triplog"`
		Username    string `env:"MQTT_USERNAME"`
		Password    string `env:"MQTT_PASSWORD"`
		TopicPrefix string `env:"MQTT_TOPIC_PREFIX" default:"triplog"`
		QoS         int    `env:"MQTT_QOS" default:"1" validate:"min=0,max=2"`
	}

	StorageConfig struct {
		PendingPath string `env:"STORAGE_PENDING_PATH" default:"pending_trips.db" validate:"required"`
	}

	ExternalAPIConfig struct {
		OpenRouteAPIKey   string        `env:"OPENROUTE_API_KEY"`
		OpenRouteURL      string        `env:"OPENROUTE_URL" default:"https://api.openrouteservice.org"`
		NominatimURL      string        `env:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
		NominatimAgent    string        `env:"NOMINATIM_USER_AGENT" default:"triplog/1.0"`
		NominatimLanguage string        `env:"NOMINATIM_LANGUAGE" default:"en"`
		LocationIQAPIKey  string        `env:"LOCATIONIQ_API_KEY"`
		LocationIQURL     string        `env:"LOCATIONIQ_URL" default:"https://us1.locationiq.com"`
		GoogleMapsAPIKey  string        `env:"GOOGLE_MAPS_API_KEY"`
		GoogleMapsURL     string        `env:"GOOGLE_MAPS_URL"`
		GeocodeOrder      []string      `env:"GEOCODE_ORDER" default:"openroute,nominatim,locationiq,gmaps" validate:"dive,oneof=openroute nominatim locationiq gmaps"`
		GeocodeTimeout    time.Duration `env:"GEOCODE_TIMEOUT" default:"5s"`
	}

	Auth struct {
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		JWTSecret      string        `env:"AUTH_JWT_SECRET" validate:"required"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c DatabaseConfig) GetMaxConns() int32 { return c.MaxConns }

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RabbitMQConfig) Enabled() bool { return c.Host != "" }

func (c RedisConfig) GetAddr() string     { return c.Addr }
func (c RedisConfig) GetPassword() string { return c.Password }
func (c RedisConfig) GetDB() int          { return c.DB }
func (c RedisConfig) Enabled() bool       { return c.Addr != "" }

func (c MQTTConfig) GetBrokerURL() string { return c.BrokerURL }
func (c MQTTConfig) GetClientID() string  { return c.ClientID }
func (c MQTTConfig) GetUsername() string  { return c.Username }
func (c MQTTConfig) GetPassword() string  { return c.Password }

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}
