package dispatcher

import (
	"context"

	"github.com/garyjia/approval-workflow/internal/domain/event"
)

// Handler observes a committed domain event. Its error is logged, never
// propagated back into the transition that produced the event.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// wildcard is the key under which SubscribeAll handlers are stored
const wildcard event.Type = "*"
