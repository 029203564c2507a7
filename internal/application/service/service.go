package service

import (
	"context"

	"github.com/garyjia/approval-workflow/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EventPublisher receives events after the state they describe is committed
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
}

// publish hands the event to the publisher. Observer failures are logged
// and never reach the caller.
func publish(ctx context.Context, publisher EventPublisher, logger Logger, evt *event.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, evt); err != nil {
		logger.Error("Failed to publish event",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"request_id", evt.RequestID,
			"error", err,
		)
	}
}
