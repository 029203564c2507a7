package workflow

import (
	"fmt"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// Trigger represents an action that can cause a request transition
type Trigger string

const (
	TriggerApprove  Trigger = "APPROVE"
	TriggerReject   Trigger = "REJECT"
	TriggerDelegate Trigger = "DELEGATE"
	TriggerCancel   Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerFor maps a recorded action kind to the trigger it fires
func TriggerFor(action entity.ActionKind) (Trigger, error) {
	switch action {
	case entity.ActionApproved:
		return TriggerApprove, nil
	case entity.ActionRejected:
		return TriggerReject, nil
	case entity.ActionDelegated:
		return TriggerDelegate, nil
	case entity.ActionCancelled:
		return TriggerCancel, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
}
