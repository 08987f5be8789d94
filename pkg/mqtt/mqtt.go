package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

type Config interface {
	GetBrokerURL() string
	GetClientID() string
	GetUsername() string
	GetPassword() string
}

// Connect opens a broker connection with automatic reconnects.
func Connect(ctx context.Context, cfg Config, log logger.Logger) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.GetBrokerURL())
	opts.SetClientID(cfg.GetClientID())
	if cfg.GetUsername() != "" {
		opts.SetUsername(cfg.GetUsername())
		opts.SetPassword(cfg.GetPassword())
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetConnectTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(paho.Client) {
		log.Info(wrap.WithAction(ctx, types.ActionMQTTConnected), "MQTT connection established", "broker", cfg.GetBrokerURL())
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Error(wrap.WithAction(ctx, types.ActionMQTTLost), "MQTT connection lost", err)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timeout", cfg.GetBrokerURL())
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return client, nil
}
