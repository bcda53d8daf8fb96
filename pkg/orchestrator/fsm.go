package orchestrator

import (
	"fmt"
	"sync"
)

// State is one of the orchestrator's finite-state machine states
// (spec §4.5).
type State string

const (
	StateReady     State = "ready"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// transitions enumerates every legal (from, to) pair; any attempt not in
// this table fails without mutating state (spec §4.5 table).
var transitions = map[State]map[State]bool{
	StateReady:   {StateRunning: true},
	StateRunning: {StatePaused: true, StateStopped: true, StateCompleted: true, StateFailed: true},
	StatePaused:  {StateRunning: true, StateStopped: true},
}

func isTerminal(s State) bool {
	return s == StateStopped || s == StateCompleted || s == StateFailed
}

// ErrInvalidTransition is returned when a transition is not in the table.
type ErrInvalidTransition struct {
	From, To State
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("orchestrator: invalid transition %s -> %s", e.From, e.To)
}

// fsm guards State under a single lock, validating every transition
// against the table before applying it (spec §4.5, §5 "guarded by a
// single control lock").
type fsm struct {
	mu    sync.Mutex
	state State
	phase string
}

func newFSM() *fsm {
	return &fsm{state: StateReady}
}

func (f *fsm) current() (State, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.phase
}

// transition attempts to move to "to"; on success it also records the
// current phase string used for the workflow_status broadcast.
func (f *fsm) transition(to State, phase string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	allowed, ok := transitions[f.state][to]
	if !ok || !allowed {
		return &ErrInvalidTransition{From: f.state, To: to}
	}
	f.state = to
	f.phase = phase
	return nil
}

// setPhase updates the current phase label without a state transition,
// used as the orchestrator advances through §4.5's phase list while
// remaining "running".
func (f *fsm) setPhase(phase string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = phase
}

// gates returns the can_pause/can_resume/can_stop flags for the current
// state, used in the workflow_status broadcast content.
func (f *fsm) gates() (canPause, canResume, canStop bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateRunning:
		return true, false, true
	case StatePaused:
		return false, true, true
	default:
		return false, false, false
	}
}
