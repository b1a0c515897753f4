package trips

import "fmt"

// State is the trip lifecycle. The order is total and transitions move one
// step at a time; there is no skipping.
type State string

const (
	StateInit     State = "init"
	StatePlanning State = "planning"
	StatePlanned  State = "planned"
	StateActive   State = "active"
	StateReview   State = "review"
	StateDone     State = "done"
)

var stateOrder = []State{
	StateInit,
	StatePlanning,
	StatePlanned,
	StateActive,
	StateReview,
	StateDone,
}

func (s State) index() int {
	for i, st := range stateOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following state. ok is false at Done (and for values not
// in the lifecycle).
func (s State) Next() (State, bool) {
	i := s.index()
	if i < 0 || i == len(stateOrder)-1 {
		return s, false
	}
	return stateOrder[i+1], true
}

// Prev returns the preceding state. ok is false at Init.
func (s State) Prev() (State, bool) {
	i := s.index()
	if i <= 0 {
		return s, false
	}
	return stateOrder[i-1], true
}

// ParseState validates a state read from storage or from a request.
// An unrecognized value means schema drift or a corrupt row.
func ParseState(raw string) (State, error) {
	s := State(raw)
	if s.index() < 0 {
		return "", fmt.Errorf("unknown trip state %q", raw)
	}
	return s, nil
}
