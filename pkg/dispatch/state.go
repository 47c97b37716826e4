package dispatch

import (
	"fmt"
	"sync/atomic"
)

// Phase is a stage of the session lifecycle. Transitions are strictly
// monotonic; there are no back-transitions.
type Phase int32

const (
	// PhaseUninitialized is the state before the initialize exchange.
	PhaseUninitialized Phase = iota
	// PhaseInitialized is the normal operating state.
	PhaseInitialized
	// PhaseShuttingDown is entered once the shutdown response is on the
	// write path; only the exit notification is honored afterwards.
	PhaseShuttingDown
	// PhaseExited is terminal; the read loop stops accepting work.
	PhaseExited
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseShuttingDown:
		return "shutting-down"
	case PhaseExited:
		return "exited"
	default:
		return "unknown"
	}
}

// StateMachine tracks the lifecycle phase of one session. It is safe for
// concurrent use.
type StateMachine struct {
	phase atomic.Int32
}

// NewStateMachine creates a state machine in PhaseUninitialized.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// Phase returns the current phase.
func (s *StateMachine) Phase() Phase {
	return Phase(s.phase.Load())
}

// Advance moves the machine forward to the given phase. Skipping phases is
// permitted (exit may arrive before initialize); moving backward is not.
// Advancing to the current phase is a no-op.
func (s *StateMachine) Advance(to Phase) error {
	for {
		current := s.phase.Load()
		if Phase(current) == to {
			return nil
		}
		if Phase(current) > to {
			return fmt.Errorf("dispatch: cannot move lifecycle backward from %s to %s", Phase(current), to)
		}
		if s.phase.CompareAndSwap(current, int32(to)) {
			return nil
		}
	}
}
