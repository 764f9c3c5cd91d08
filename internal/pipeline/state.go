package pipeline

import "fmt"

// State is one phase of a pipeline run. Done and Failed are terminal.
type State string

const (
	StateIdle        State = "idle"
	StateDetecting   State = "detecting"
	StateAggregating State = "aggregating"
	StateScoring     State = "scoring"
	StateEnhancing   State = "enhancing"
	StateCompiling   State = "compiling"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// transitions is the legal state graph. Enhancing is optional, so both
// Scoring→Enhancing→Compiling and Scoring→Compiling are valid; Failed is
// reachable from any non-terminal state as the error-absorbing exit.
var transitions = map[State][]State{
	StateIdle:        {StateDetecting, StateDone, StateFailed},
	StateDetecting:   {StateAggregating, StateFailed},
	StateAggregating: {StateScoring, StateFailed},
	StateScoring:     {StateEnhancing, StateCompiling, StateFailed},
	StateEnhancing:   {StateCompiling, StateFailed},
	StateCompiling:   {StateDone, StateFailed},
	StateDone:        {},
	StateFailed:      {},
}

// Transition validates a state change and returns the new state.
func Transition(from, to State) (State, error) {
	for _, next := range transitions[from] {
		if next == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("pipeline: illegal transition %s -> %s", from, to)
}

// mustTransition is used on internally driven transitions, where an
// illegal move is a programming error; the run-level recover turns the
// panic into a Failed result rather than letting it escape the caller.
func mustTransition(from, to State) State {
	next, err := Transition(from, to)
	if err != nil {
		panic(err)
	}
	return next
}

// Terminal reports whether s admits no further transitions.
func Terminal(s State) bool {
	return len(transitions[s]) == 0
}
