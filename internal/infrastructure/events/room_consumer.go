package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"github.com/codecollab/codecollab/internal/infrastructure/contracts"
	"github.com/codecollab/codecollab/internal/infrastructure/logging"
	"github.com/codecollab/codecollab/internal/infrastructure/messaging"
)

type roomConsumer struct {
	rabbitmq *messaging.RabbitMQ
	logger   logging.Logger
}

func NewRoomConsumer(rabbitmq *messaging.RabbitMQ, logger logging.Logger) *roomConsumer {
	return &roomConsumer{
		rabbitmq: rabbitmq,
		logger:   logger,
	}
}

// Listen drains the rooms queue and writes an audit line per lifecycle event.
func (c *roomConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.RoomsQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.logger.Warn(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal amqp message", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		var payload messaging.RoomEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			c.logger.Warn(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal room event data", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		c.logger.Info(logging.RabbitMQ, logging.ExternalService, "room event received", map[logging.ExtraKey]any{
			logging.RoomID:   payload.RoomID,
			logging.UserName: payload.UserName,
			"routingKey":     msg.RoutingKey,
		})

		return nil
	})
}
