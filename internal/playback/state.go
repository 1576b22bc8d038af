package playback

import "slices"

// State is the controller's playback state.
type State int

const (
	// Idle waits for a trigger.
	Idle State = iota
	// Processing is capturing and preparing text.
	Processing
	// Speaking has an utterance in flight.
	Speaking
	// Stopping is waiting for the speech worker to exit.
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Speaking:
		return "speaking"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Busy reports whether a trigger would be ignored in this state.
func (s State) Busy() bool {
	return s != Idle
}

// stateMachine rejects transitions not listed in its table. It is not
// safe for concurrent use; the Controller guards it.
type stateMachine struct {
	current     State
	transitions map[State][]State
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		current: Idle,
		transitions: map[State][]State{
			Idle:       {Processing},
			Processing: {Speaking, Stopping, Idle},
			Speaking:   {Stopping, Idle},
			Stopping:   {Idle},
		},
	}
}

func (sm *stateMachine) transition(to State) bool {
	if !slices.Contains(sm.transitions[sm.current], to) {
		return false
	}
	sm.current = to
	return true
}
