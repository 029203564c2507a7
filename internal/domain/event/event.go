package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// Event announces a committed change to an approval request or workflow
type Event struct {
	ID             string                 `json:"id"`
	Type           Type                   `json:"type"`
	OrganizationID string                 `json:"organization_id"`
	RequestID      string                 `json:"request_id,omitempty"`
	WorkflowID     string                 `json:"workflow_id,omitempty"`
	EntityType     string                 `json:"entity_type,omitempty"`
	EntityID       string                 `json:"entity_id,omitempty"`
	ActorID        string                 `json:"actor_id,omitempty"`
	Status         entity.Status          `json:"status,omitempty"`
	Step           int                    `json:"step"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// NewEvent creates an event with a generated ID and the current time
func NewEvent(eventType Type, organizationID string, payload map[string]interface{}) *Event {
	return &Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		OrganizationID: organizationID,
		Payload:        payload,
		Timestamp:      time.Now().UTC(),
	}
}

// ForRequest creates an event describing the request as it is now
func ForRequest(eventType Type, req *entity.ApprovalRequest, actorID string) *Event {
	evt := NewEvent(eventType, req.OrganizationID, nil)
	evt.RequestID = req.ID
	evt.EntityType = req.EntityType
	evt.EntityID = req.EntityID
	evt.ActorID = actorID
	evt.Status = req.Status
	evt.Step = req.CurrentStep
	if req.WorkflowID != nil {
		evt.WorkflowID = *req.WorkflowID
	}
	return evt
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
