package workflow

import (
	"errors"
	"testing"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   entity.Status
		expected bool
	}{
		{entity.StatusPending, false},
		{entity.StatusApproved, true},
		{entity.StatusRejected, true},
		{entity.StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   entity.Status
		expected bool
	}{
		{"pending", entity.StatusPending, true},
		{"cancelled", entity.StatusCancelled, true},
		{"upper case", entity.Status("PENDING"), false},
		{"empty", entity.Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerApprove.String(); got != "APPROVE" {
		t.Errorf("Trigger.String() = %v, want %v", got, "APPROVE")
	}
}

func TestTriggerFor(t *testing.T) {
	tests := []struct {
		action  entity.ActionKind
		want    Trigger
		wantErr bool
	}{
		{entity.ActionApproved, TriggerApprove, false},
		{entity.ActionRejected, TriggerReject, false},
		{entity.ActionDelegated, TriggerDelegate, false},
		{entity.ActionCancelled, TriggerCancel, false},
		{entity.ActionKind("escalated"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got, err := TriggerFor(tt.action)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TriggerFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TriggerFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(entity.StatusPending)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	// Configure same status again should return same config
	if config2 := builder.Configure(entity.StatusPending); config != config2 {
		t.Error("Configure() should return same config for same status")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid status")
		}
	}()

	builder.Configure(entity.Status("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial status")
		}
	}()

	builder.Build(entity.Status("INVALID"), Position{})
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target status")
		}
	}()

	builder.Configure(entity.StatusPending).Permit(TriggerApprove, entity.Status("INVALID"))
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(entity.StatusPending).
		PermitIf(TriggerApprove, entity.StatusApproved, func(p Position) bool {
			return false
		})

	machine := builder.Build(entity.StatusPending, Position{Step: 1, LastStep: 1})

	err := machine.Fire(TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail when guard fails")
	}
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != entity.StatusPending {
		t.Errorf("State should remain %v after failed Fire(), got %v", entity.StatusPending, machine.State())
	}
}

func TestStateConfiguration_PermitAdvanceIf(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(entity.StatusPending).
		PermitIf(TriggerApprove, entity.StatusApproved, func(p Position) bool { return p.IsLastStep() }).
		PermitAdvanceIf(TriggerApprove, entity.StatusPending, func(p Position) bool { return !p.IsLastStep() })

	machine := builder.Build(entity.StatusPending, Position{Step: 1, LastStep: 2})
	if err := machine.Fire(TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != entity.StatusPending || machine.Step() != 2 {
		t.Errorf("after first approve got (%v, %d), want (pending, 2)", machine.State(), machine.Step())
	}

	if err := machine.Fire(TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != entity.StatusApproved || machine.Step() != 2 {
		t.Errorf("after second approve got (%v, %d), want (approved, 2)", machine.State(), machine.Step())
	}
}

func TestStateMachine_PendingAcceptsEveryDecision(t *testing.T) {
	tests := []struct {
		trigger Trigger
		wantErr error
	}{
		{TriggerApprove, nil},
		{TriggerReject, nil},
		{TriggerDelegate, nil},
		{TriggerCancel, nil},
		{Trigger("ESCALATE"), ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			machine, err := NewRequestMachine(entity.StatusPending, Position{Step: 1, LastStep: 2})
			if err != nil {
				t.Fatalf("NewRequestMachine() error = %v", err)
			}
			if err := machine.Fire(tt.trigger); !errors.Is(err, tt.wantErr) {
				t.Errorf("Fire() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStateMachine_TerminalStatesRejectEveryTrigger(t *testing.T) {
	for _, status := range []entity.Status{entity.StatusApproved, entity.StatusRejected, entity.StatusCancelled} {
		machine, err := NewRequestMachine(status, Position{Step: 1, LastStep: 1})
		if err != nil {
			t.Fatalf("NewRequestMachine() error = %v", err)
		}
		for _, trigger := range []Trigger{TriggerApprove, TriggerReject, TriggerDelegate, TriggerCancel} {
			if err := machine.Fire(trigger); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s: Fire(%s) error = %v, want %v", status, trigger, err, ErrInvalidTransition)
			}
		}
	}
}

func TestBuilder_BuildIsolatesConfiguration(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(entity.StatusPending).Permit(TriggerReject, entity.StatusRejected)

	machine := builder.Build(entity.StatusPending, Position{Step: 1, LastStep: 1})

	// Configure after build must not affect the built machine
	builder.Configure(entity.StatusPending).Permit(TriggerCancel, entity.StatusCancelled)

	if err := machine.Fire(TriggerCancel); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("built machine should not see transitions configured after Build(), got %v", err)
	}
}
