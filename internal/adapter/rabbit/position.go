package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
	"github.com/Temutjin2k/triplog/pkg/rabbit"
)

const brokerName = "rabbitmq"

// PositionConsumer delivers fixes published to the location exchange.
type PositionConsumer struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewPositionConsumer(client *rabbit.RabbitMQ, l logger.Logger) *PositionConsumer {
	return &PositionConsumer{client: client, l: l}
}

// Subscribe declares a private queue bound with location.<userID> and streams the user's fixes
// until ctx is cancelled. The exchange is a fanout, so messages of other users are dropped here.
func (c *PositionConsumer) Subscribe(ctx context.Context, userID string) (<-chan models.Position, error) {
	const op = "PositionConsumer.Subscribe"

	ch, err := c.client.OpenChannel(ctx)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	msgs, err := c.declareAndConsume(ch, userID)
	if err != nil {
		_ = ch.Close()
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	out := make(chan models.Position, 16)
	go c.forward(ctx, ch, msgs, userID, out)

	c.l.Info(ctx, "consuming positions", "exchange", LocationExchange, "routing_key", locationKey(userID))
	return out, nil
}

func (c *PositionConsumer) declareAndConsume(ch *amqp.Channel, userID string) (<-chan amqp.Delivery, error) {
	if err := ch.ExchangeDeclare(LocationExchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, locationKey(userID), LocationExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return msgs, nil
}

func (c *PositionConsumer) forward(ctx context.Context, ch *amqp.Channel, msgs <-chan amqp.Delivery, userID string, out chan<- models.Position) {
	defer close(out)
	defer ch.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				c.l.Warn(wrap.WithAction(ctx, types.ActionPositionSourceErr), "position deliveries closed")
				return
			}

			pos, mine, err := decodePosition(d.Body, userID)
			metrics.RecordConsume(brokerName, err)
			if err != nil {
				c.l.Warn(ctx, "dropping malformed position message", "error", err.Error())
				continue
			}
			if !mine {
				continue
			}

			select {
			case out <- pos:
			case <-ctx.Done():
				return
			}
		}
	}
}

// decodePosition parses a broker message; mine is false when it belongs to another user.
func decodePosition(body []byte, userID string) (models.Position, bool, error) {
	var msg models.PositionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return models.Position{}, false, err
	}
	if msg.UserID != userID {
		return models.Position{}, false, nil
	}
	return msg.Position, true, nil
}
