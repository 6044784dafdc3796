package state

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidState is returned if event cannot be handled in the current state.
	ErrInvalidState = errors.New("invalid state")
)

// State identifies one of the possible states a stage can be in.
type State interface {
	transition(Event) (State, error)
	fmt.Stringer
}

// states
type (
	running  struct{}
	draining struct{}
	closed   struct{}
)

// states variables
var (
	Running  running  // Running means that stage moves units downstream.
	Draining draining // Draining means that end of stream reached the stage, but downstream is still open.
	Closed   closed   // Closed means that downstream is closed and stage is done.
)

// Event triggers the state change.
type Event int

// types of events.
const (
	// Exhaust is sent when upstream reported end of stream or
	// source has no more records.
	Exhaust Event = iota
	// Close is sent when stage closed its downstream.
	Close
)

// Stage tracks the lifecycle of a single stage. It's safe to read the
// state from other goroutines.
type Stage struct {
	mu    sync.Mutex
	state State
}

// New returns a stage in Running state.
func New() *Stage {
	return &Stage{state: Running}
}

// Handle applies event to the current state. Previous and new states are
// returned. ErrInvalidState is returned if transition is not allowed,
// state is not changed in this case.
func (s *Stage) Handle(e Event) (from, to State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = s.state
	to, err = s.state.transition(e)
	if err != nil {
		return from, from, fmt.Errorf("%v on %v: %w", e, from, err)
	}
	s.state = to
	return from, to, nil
}

// State returns current state.
func (s *Stage) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s running) transition(e Event) (State, error) {
	switch e {
	case Exhaust:
		return Draining, nil
	}
	return s, ErrInvalidState
}

// repeated exhaust is allowed: end of stream is reported on every fetch
// after the upstream is drained.
func (s draining) transition(e Event) (State, error) {
	switch e {
	case Exhaust:
		return s, nil
	case Close:
		return Closed, nil
	}
	return s, ErrInvalidState
}

func (s closed) transition(e Event) (State, error) {
	return s, ErrInvalidState
}

func (running) String() string {
	return "state.Running"
}

func (draining) String() string {
	return "state.Draining"
}

func (closed) String() string {
	return "state.Closed"
}

func (e Event) String() string {
	switch e {
	case Exhaust:
		return "event.Exhaust"
	case Close:
		return "event.Close"
	}
	return "event.Unknown"
}
