package events

import (
	"context"
	"time"

	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

type noopPublisher struct{}

// NewNoopPublisher drops every event. It stands in when no broker is
// configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, *Event) error {
	return nil
}

// PublishAsync publishes in the background so a slow or absent broker never
// holds up the caller. Failures are only logged.
func PublishAsync(p Publisher, log *logger.Logger, event *Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			log.Error("failed to publish event",
				zap.Error(err),
				zap.String("eventType", string(event.Type)),
				zap.String("eventID", event.ID),
			)
		}
	}()
}
