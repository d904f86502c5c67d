package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/metrics"
)

const (
	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

// Publisher is satisfied by *rabbit.RabbitMQ.
type Publisher interface {
	Publish(ctx context.Context, exchange, key, correlationID string, body []byte) error
}

// EventProducer publishes dispatch events to the topic exchange.
type EventProducer struct {
	client   Publisher
	exchange string
}

func NewEventProducer(client Publisher) *EventProducer {
	return &EventProducer{
		client:   client,
		exchange: types.DispatchExchange,
	}
}

// PublishTripAssigned announces a committed assignment.
func (p *EventProducer) PublishTripAssigned(ctx context.Context, msg models.TripAssignedMessage) error {
	const op = "EventProducer.PublishTripAssigned"
	return p.publish(ctx, op, types.EventTripAssigned, msg.CorrelationID, msg)
}

// PublishDriverStatus announces a driver state correction.
func (p *EventProducer) PublishDriverStatus(ctx context.Context, msg models.DriverStatusMessage) error {
	const op = "EventProducer.PublishDriverStatus"
	return p.publish(ctx, op, types.EventDriverStatusOffline, msg.CorrelationID, msg)
}

func (p *EventProducer) publish(ctx context.Context, op string, key types.EventType, correlationID string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		ctx = wrap.WithAction(ctx, "marshal_event")
		return wrap.Error(ctx, fmt.Errorf("%s: failed to marshal message: %w", op, err))
	}

	err = retry(ctx, publishAttempts, publishBackoff, func() error {
		return p.client.Publish(ctx, p.exchange, key.String(), correlationID, body)
	})
	metrics.RecordRabbitMQPublish(p.exchange, key.String(), err)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionEventPublishFail)
		return wrap.Error(ctx, fmt.Errorf("%s: failed to publish: %w", op, err))
	}

	return nil
}
