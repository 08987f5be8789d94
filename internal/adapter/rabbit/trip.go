package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
	"github.com/Temutjin2k/triplog/pkg/rabbit"
)

type TripPublisher struct {
	client *rabbit.RabbitMQ
}

func NewTripPublisher(client *rabbit.RabbitMQ) *TripPublisher {
	return &TripPublisher{client: client}
}

// PublishTripCompleted announces a stored trip on the trip exchange.
func (p *TripPublisher) PublishTripCompleted(ctx context.Context, event models.TripCompletedEvent) error {
	const op = "TripPublisher.PublishTripCompleted"

	body, err := json.Marshal(event)
	if err != nil {
		ctx = wrap.WithAction(ctx, "marshal_trip_event")
		return wrap.Error(ctx, fmt.Errorf("%s: failed to marshal message: %w", op, err))
	}

	err = retry(ctx, 3, 500*time.Millisecond, func() error {
		if err := p.client.EnsureConnection(ctx); err != nil {
			return err
		}
		if err := p.client.Channel.ExchangeDeclare(TripExchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange: %w", err)
		}
		return p.client.Channel.PublishWithContext(
			ctx,
			TripExchange,
			tripCompletedKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    event.TripID,
				Body:         body,
				Timestamp:    time.Now(),
			},
		)
	})
	metrics.RecordRabbitMQPublish("triplog", TripExchange, err)
	if err != nil {
		ctx = wrap.WithAction(ctx, "publish_message")
		return wrap.Error(ctx, fmt.Errorf("%s: failed to publish with context: %w", op, err))
	}
	return nil
}
