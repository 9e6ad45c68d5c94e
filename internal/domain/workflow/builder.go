package workflow

import "fmt"

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given status
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial status
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions out of a specific status
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target status
	Permit(trigger Trigger, toState State) StateConfiguration
}

// stateConfig implements StateConfiguration
type stateConfig struct {
	fromState   State
	transitions map[Trigger]State
}

// stateMachineBuilder implements StateMachineBuilder
type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given status
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger]State),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial status.
// The configuration is copied so built machines are independent of the
// builder and of each other.
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial status: %s", initialState))
	}

	transitions := make(map[State]map[Trigger]State, len(b.configurations))
	for state, config := range b.configurations {
		byTrigger := make(map[Trigger]State, len(config.transitions))
		for trigger, to := range config.transitions {
			byTrigger[trigger] = to
		}
		transitions[state] = byTrigger
	}

	return &stateMachine{
		current:     initialState,
		transitions: transitions,
	}
}

// Permit allows a trigger to transition to the target status
func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", toState))
	}
	c.transitions[trigger] = toState
	return c
}
