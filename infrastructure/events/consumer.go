package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hilthontt/townhall/infrastructure/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventHandler handles one event type.
type EventHandler func(ctx context.Context, event *Event) error

// EventConsumer reads the exchange through a durable queue and hands each
// event to the handler registered for its type.
type EventConsumer struct {
	rabbitmq *RabbitMQ
	queue    string
	logger   *logger.Logger

	mu       sync.RWMutex
	handlers map[EventType]EventHandler
}

func NewEventConsumer(rabbitmq *RabbitMQ, queue string, log *logger.Logger) *EventConsumer {
	ec := &EventConsumer{
		rabbitmq: rabbitmq,
		queue:    queue,
		logger:   log,
		handlers: make(map[EventType]EventHandler),
	}

	for _, t := range []EventType{
		EventRoomCreated,
		EventMemberJoined,
		EventMemberLeft,
		EventMessageSent,
		EventLocationCreated,
		EventLocationRenamed,
		EventLocationDeleted,
	} {
		ec.RegisterHandler(t, ec.auditLog)
	}

	return ec
}

func (ec *EventConsumer) RegisterHandler(eventType EventType, handler EventHandler) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.handlers[eventType] = handler
}

// Start consumes until ctx is cancelled or the delivery channel closes.
func (ec *EventConsumer) Start(ctx context.Context) error {
	q, err := ec.rabbitmq.declareAndBindQueue(ec.queue, []string{"#"})
	if err != nil {
		return err
	}

	deliveries, err := ec.rabbitmq.Channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", q.Name, err)
	}

	ec.logger.Info("event consumer started", zap.String("queue", q.Name))

	for {
		select {
		case <-ctx.Done():
			ec.logger.Info("event consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			ec.handleDelivery(ctx, d)
		}
	}
}

func (ec *EventConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		ec.logger.Error("failed to unmarshal event", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	ec.mu.RLock()
	handler, ok := ec.handlers[event.Type]
	ec.mu.RUnlock()

	if !ok {
		_ = d.Ack(false)
		return
	}

	if err := handler(ctx, &event); err != nil {
		ec.logger.Error("failed to handle event",
			zap.Error(err),
			zap.String("eventType", string(event.Type)),
			zap.String("eventID", event.ID),
		)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (ec *EventConsumer) auditLog(_ context.Context, event *Event) error {
	ec.logger.Info("audit",
		zap.String("eventID", event.ID),
		zap.String("eventType", string(event.Type)),
		zap.String("roomToken", event.RoomToken),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("data", event.Data),
	)
	return nil
}
