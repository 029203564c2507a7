package workflow

import (
	"fmt"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// Position is where a request stands within its workflow
type Position struct {
	Step     int
	LastStep int
}

// IsLastStep returns true when the current step is the final one
func (p Position) IsLastStep() bool {
	return p.Step >= p.LastStep
}

// GuardFunc decides whether a transition applies at the given position
type GuardFunc func(pos Position) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given status
	Configure(status entity.Status) StateConfiguration

	// Build creates a new state machine instance at the given status and position
	Build(initial entity.Status, pos Position) StateMachine
}

// StateConfiguration configures transitions for a specific status
type StateConfiguration interface {
	// Permit allows a trigger to move to the target status, keeping the step
	Permit(trigger Trigger, to entity.Status) StateConfiguration

	// PermitIf allows a trigger to move to the target status if the guard passes
	PermitIf(trigger Trigger, to entity.Status, guard GuardFunc) StateConfiguration

	// PermitAdvanceIf is PermitIf that also moves the request to the next step
	PermitAdvanceIf(trigger Trigger, to entity.Status, guard GuardFunc) StateConfiguration
}

type transition struct {
	to      entity.Status
	guard   GuardFunc
	advance bool
}

type stateConfig struct {
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[entity.Status]*stateConfig
}

type stateMachine struct {
	current        entity.Status
	pos            Position
	configurations map[entity.Status]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[entity.Status]*stateConfig),
	}
}

// Configure returns a state configuration for the given status
func (b *stateMachineBuilder) Configure(status entity.Status) StateConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", status))
	}

	config, exists := b.configurations[status]
	if !exists {
		config = &stateConfig{transitions: make(map[Trigger][]transition)}
		b.configurations[status] = config
	}

	return config
}

// Build creates a new state machine instance at the given status and position
func (b *stateMachineBuilder) Build(initial entity.Status, pos Position) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	// Copy so later Configure calls never leak into built machines
	configs := make(map[entity.Status]*stateConfig, len(b.configurations))
	for status, config := range b.configurations {
		transitions := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition{}, ts...)
		}
		configs[status] = &stateConfig{transitions: transitions}
	}

	return &stateMachine{
		current:        initial,
		pos:            pos,
		configurations: configs,
	}
}

// Permit allows a trigger to move to the target status, keeping the step
func (c *stateConfig) Permit(trigger Trigger, to entity.Status) StateConfiguration {
	return c.add(trigger, to, nil, false)
}

// PermitIf allows a trigger to move to the target status if the guard passes
func (c *stateConfig) PermitIf(trigger Trigger, to entity.Status, guard GuardFunc) StateConfiguration {
	return c.add(trigger, to, guard, false)
}

// PermitAdvanceIf is PermitIf that also moves the request to the next step
func (c *stateConfig) PermitAdvanceIf(trigger Trigger, to entity.Status, guard GuardFunc) StateConfiguration {
	return c.add(trigger, to, guard, true)
}

func (c *stateConfig) add(trigger Trigger, to entity.Status, guard GuardFunc, advance bool) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		to:      to,
		guard:   guard,
		advance: advance,
	})

	return c
}

// State returns the current status
func (m *stateMachine) State() entity.Status {
	return m.current
}

// Step returns the current step
func (m *stateMachine) Step() int {
	return m.pos.Step
}

// Fire attempts to execute the trigger. Guarded transitions are tried in
// configuration order and the first passing one wins.
func (m *stateMachine) Fire(trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard(m.pos) {
			m.current = t.to
			if t.advance {
				m.pos.Step++
			}
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s at step %d", ErrGuardFailed, trigger, m.current, m.pos.Step)
}

