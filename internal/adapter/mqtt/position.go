package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
)

const (
	brokerName   = "mqtt"
	tokenTimeout = 10 * time.Second
)

// Client is the part of paho.Client the subscriber uses
type Client interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// PositionSubscriber streams fixes that telematics units publish to <prefix>/<user_id>/position.
type PositionSubscriber struct {
	client Client
	prefix string
	qos    byte
	log    logger.Logger
}

func NewPositionSubscriber(client Client, prefix string, qos byte, log logger.Logger) *PositionSubscriber {
	return &PositionSubscriber{
		client: client,
		prefix: prefix,
		qos:    qos,
		log:    log,
	}
}

func (s *PositionSubscriber) Topic(userID string) string {
	return fmt.Sprintf("%s/%s/position", s.prefix, userID)
}

// Subscribe delivers the user's fixes until ctx is cancelled.
// Fixes arriving while the consumer is behind are dropped, the newest position wins anyway.
func (s *PositionSubscriber) Subscribe(ctx context.Context, userID string) (<-chan models.Position, error) {
	const op = "PositionSubscriber.Subscribe"

	topic := s.Topic(userID)
	out := make(chan models.Position, 16)
	done := ctx.Done()

	handler := func(_ paho.Client, msg paho.Message) {
		pos, err := decode(msg.Payload())
		metrics.RecordConsume(brokerName, err)
		if err != nil {
			s.log.Warn(ctx, "dropping malformed position message", "topic", msg.Topic(), "error", err.Error())
			return
		}
		select {
		case <-done:
		case out <- pos:
		default:
			s.log.Warn(ctx, "position consumer is behind, dropping fix", "topic", msg.Topic())
		}
	}

	if err := wait(s.client.Subscribe(topic, s.qos, handler)); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: subscribe %s: %w", op, topic, err))
	}
	s.log.Info(ctx, "MQTT subscription created", "topic", topic)

	go func() {
		<-done
		if err := wait(s.client.Unsubscribe(topic)); err != nil {
			s.log.Warn(ctx, "failed to unsubscribe", "topic", topic, "error", err.Error())
		}
	}()

	return out, nil
}

func wait(token paho.Token) error {
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("timed out after %s", tokenTimeout)
	}
	return token.Error()
}

func decode(payload []byte) (models.Position, error) {
	var pos models.Position
	if err := json.Unmarshal(payload, &pos); err != nil {
		return models.Position{}, err
	}
	return pos, nil
}
