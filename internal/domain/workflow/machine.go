package workflow

import (
	"fmt"
	"sort"
)

// StateMachine tracks a report's current status and validates transitions.
type StateMachine interface {
	// State returns the current status
	State() State

	// CanFire returns true if the trigger is permitted in the current status
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new status if allowed
	Fire(trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current status
	PermittedTriggers() []Trigger
}

// stateMachine implements StateMachine
type stateMachine struct {
	current     State
	transitions map[State]map[Trigger]State
}

// State returns the current status
func (m *stateMachine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current status
func (m *stateMachine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.current][trigger]
	return ok
}

// Fire attempts to execute the trigger, transitioning to the new status if allowed
func (m *stateMachine) Fire(trigger Trigger) error {
	to, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from status %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = to
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the current
// status, in stable order.
func (m *stateMachine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(m.transitions[m.current]))
	for trigger := range m.transitions[m.current] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
