package workflow

import "github.com/garyjia/approval-workflow/internal/domain/entity"

// StateMachine tracks the status and step of a single request and validates transitions
type StateMachine interface {
	// State returns the current status
	State() entity.Status

	// Step returns the current step
	Step() int

	// Fire attempts to execute the trigger, moving to the new status and step if allowed
	Fire(trigger Trigger) error
}
