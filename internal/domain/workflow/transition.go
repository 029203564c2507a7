package workflow

import (
	"fmt"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// requestLifecycle holds the transition table for approval requests.
// Terminal statuses are deliberately left unconfigured.
var requestLifecycle = configureRequestLifecycle()

func configureRequestLifecycle() StateMachineBuilder {
	builder := NewBuilder()

	isLast := func(p Position) bool { return p.IsLastStep() }
	notLast := func(p Position) bool { return !p.IsLastStep() }

	builder.Configure(entity.StatusPending).
		PermitIf(TriggerApprove, entity.StatusApproved, isLast).
		PermitAdvanceIf(TriggerApprove, entity.StatusPending, notLast).
		Permit(TriggerReject, entity.StatusRejected).
		Permit(TriggerDelegate, entity.StatusPending).
		Permit(TriggerCancel, entity.StatusCancelled)

	return builder
}

// Outcome is the status and step a request moves to
type Outcome struct {
	Status entity.Status
	Step   int
}

// NewRequestMachine builds a state machine for a request at the given status and position
func NewRequestMachine(status entity.Status, pos Position) (StateMachine, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, status)
	}
	return requestLifecycle.Build(status, pos), nil
}

// Transition computes the next status and step for a request. It never
// mutates anything; persisting the outcome is the caller's job.
func Transition(status entity.Status, pos Position, trigger Trigger) (Outcome, error) {
	machine, err := NewRequestMachine(status, pos)
	if err != nil {
		return Outcome{}, err
	}

	if err := machine.Fire(trigger); err != nil {
		return Outcome{}, err
	}

	return Outcome{Status: machine.State(), Step: machine.Step()}, nil
}
