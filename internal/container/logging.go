package container

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/approval-workflow/internal/domain/event"
)

// logEvent writes every domain event to the structured log
func (c *Container) logEvent(_ context.Context, evt *event.Event) error {
	c.logger.Info("Domain event",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type.String()),
		zap.String("organization_id", evt.OrganizationID),
		zap.String("request_id", evt.RequestID),
		zap.String("workflow_id", evt.WorkflowID),
		zap.String("actor_id", evt.ActorID),
		zap.String("status", string(evt.Status)),
		zap.Int("step", evt.Step),
	)
	return nil
}

// zapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces
// used by the service, dispatcher and http packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
