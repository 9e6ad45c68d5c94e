package workflow

// State represents a report status in the approval lifecycle
type State string

const (
	StateSubmitted State = "SUBMITTED"
	StateApproved  State = "APPROVED"
	StateRejected  State = "REJECTED"
)

var validStates = map[State]bool{
	StateSubmitted: true,
	StateApproved:  true,
	StateRejected:  true,
}

// IsValid returns true if the state is a valid report status
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
