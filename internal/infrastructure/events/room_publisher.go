package events

import (
	"context"
	"encoding/json"

	"github.com/codecollab/codecollab/internal/infrastructure/contracts"
	"github.com/codecollab/codecollab/internal/infrastructure/messaging"
)

// RoomPublisher emits room lifecycle events onto the collab exchange. It
// satisfies the gateway's publisher interface.
type RoomPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *RoomPublisher) RoomCreated(ctx context.Context, roomID string) error {
	return p.publish(ctx, contracts.EventRoomCreated, messaging.RoomEventData{
		RoomID: roomID,
	})
}

func (p *RoomPublisher) RoomDeleted(ctx context.Context, roomID string) error {
	return p.publish(ctx, contracts.EventRoomDeleted, messaging.RoomEventData{
		RoomID: roomID,
	})
}

func (p *RoomPublisher) MemberJoined(ctx context.Context, roomID, userName string) error {
	return p.publish(ctx, contracts.EventMemberJoined, messaging.RoomEventData{
		RoomID:   roomID,
		UserName: userName,
	})
}

func (p *RoomPublisher) MemberLeft(ctx context.Context, roomID, userName string) error {
	return p.publish(ctx, contracts.EventMemberLeft, messaging.RoomEventData{
		RoomID:   roomID,
		UserName: userName,
	})
}

func (p *RoomPublisher) publish(ctx context.Context, routingKey string, payload messaging.RoomEventData) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		RoomID: payload.RoomID,
		Data:   data,
	})
}
