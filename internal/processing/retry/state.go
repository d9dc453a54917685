package retry

import "errors"

// State is the lifecycle position of a single batch.
type State int

const (
	StateAttempting State = iota
	StateSucceeded
	StateFailedTerminal
	StateDeadLettered
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[State][]State{
	StateAttempting: {
		StateAttempting,
		StateSucceeded,
		StateFailedTerminal,
		StateDeadLettered,
	},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return len(ValidTransitions[s]) == 0
}

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateFailedTerminal:
		return "failed_terminal"
	case StateDeadLettered:
		return "dead_lettered"
	default:
		return "unknown"
	}
}
