package frameloop

import "fmt"

// State is a phase of the frame loop.
type State int

const (
	StateIdle State = iota
	StateRendering
	StateSubmitting
	StateDraining
	StateAborting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StateSubmitting:
		return "submitting"
	case StateDraining:
		return "draining"
	case StateAborting:
		return "aborting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition is delivered to an Observer on every state change. Frame is the
// frame index for rendering and submitting, -1 otherwise.
type Transition struct {
	State State
	Frame int
}

func (t Transition) String() string {
	if t.Frame >= 0 {
		return fmt.Sprintf("%s(%d)", t.State, t.Frame)
	}
	return t.State.String()
}

// Observer receives state transitions.
type Observer func(Transition)
