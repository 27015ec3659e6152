// Package component defines the lifecycle contract shared by every
// long-lived piece of the ingest pipeline (sources, writers, the router,
// and the engine itself) plus the factory registry used to instantiate
// plug-ins from configuration.
package component

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// RunState is the lifecycle state of a long-lived component.
type RunState int32

const (
	// StateCreated is the initial state before Initialize has been called.
	StateCreated RunState = iota
	// StateInitialized means Initialize succeeded; the component is not yet running.
	StateInitialized
	// StateRunning means Start succeeded and the component is actively working.
	StateRunning
	// StateStopped means Stop succeeded; the component may be started again.
	StateStopped
	// StateFailed means the component encountered an unrecoverable condition
	// while running and is waiting to be restarted by a supervisor.
	StateFailed
	// StateFailedInitialization means Initialize did not succeed.
	StateFailedInitialization
	// StateTransitioning is a transient state held only for the duration of
	// a single transition; it is never observed by a quiescent reader.
	StateTransitioning
)

// String renders the state for logs and health reports.
func (s RunState) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateInitialized:
		return "Initialized"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	case StateFailedInitialization:
		return "FailedInitialization"
	case StateTransitioning:
		return "Transitioning"
	default:
		return fmt.Sprintf("RunState(%d)", int32(s))
	}
}

// Lifecycle is the contract every source, writer, router, and the engine
// implement. All four methods are safe to call concurrently from any
// goroutine and never panic; illegal invocations are no-ops returning false.
type Lifecycle interface {
	Initialize(name string) bool
	Start() bool
	Stop() bool
	GetState() RunState
}

// StateMachine is an embeddable CAS-based implementation of the RunState
// graph described by the specification:
//
//	Created                    -> Transitioning -> {Initialized | FailedInitialization}
//	FailedInitialization       -> Transitioning -> {Initialized | FailedInitialization}
//	Initialized|Stopped|Failed -> Transitioning -> {Running | Failed}
//	Running                    -> Transitioning -> {Stopped | Failed}
//
// Initialize is idempotent after a successful call: once Initialized (or
// any state reachable only via a successful initialize), subsequent calls
// return true without re-running the supplied function.
type StateMachine struct {
	state atomic.Int32
	mu    sync.Mutex // guards the body of whichever transition is in flight
}

// NewStateMachine returns a StateMachine starting in StateCreated.
func NewStateMachine() *StateMachine {
	sm := &StateMachine{}
	sm.state.Store(int32(StateCreated))
	return sm
}

// GetState returns the current state. It never blocks on mu, so it may
// observe StateTransitioning while another goroutine is mid-transition.
func (sm *StateMachine) GetState() RunState {
	return RunState(sm.state.Load())
}

func (sm *StateMachine) setState(s RunState) {
	sm.state.Store(int32(s))
}

// beginTransition CASes from one of froms into StateTransitioning. It
// returns false if the current state is not one of froms (illegal/no-op)
// or if a transition is already in flight.
func (sm *StateMachine) beginTransition(froms ...RunState) bool {
	cur := sm.GetState()
	ok := false
	for _, f := range froms {
		if cur == f {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	return sm.state.CompareAndSwap(int32(cur), int32(StateTransitioning))
}

// Initialize runs fn under the Created/FailedInitialization -> Transitioning
// -> {Initialized|FailedInitialization} transition. If the component has
// already initialized successfully (Initialized, Running, Stopped, or
// Failed — all reachable only past a successful initialize) this is a
// no-op returning true.
func (sm *StateMachine) Initialize(fn func() error) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch sm.GetState() {
	case StateInitialized, StateRunning, StateStopped, StateFailed:
		return true // idempotent after success
	}

	if !sm.beginTransition(StateCreated, StateFailedInitialization) {
		return false
	}

	if err := fn(); err != nil {
		sm.setState(StateFailedInitialization)
		return false
	}
	sm.setState(StateInitialized)
	return true
}

// Start runs fn under the Initialized|Stopped|Failed -> Transitioning ->
// {Running|Failed} transition.
func (sm *StateMachine) Start(fn func() error) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.beginTransition(StateInitialized, StateStopped, StateFailed) {
		return false
	}

	if err := fn(); err != nil {
		sm.setState(StateFailed)
		return false
	}
	sm.setState(StateRunning)
	return true
}

// Stop runs fn under the Running -> Transitioning -> {Stopped|Failed}
// transition.
func (sm *StateMachine) Stop(fn func() error) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.beginTransition(StateRunning) {
		return false
	}

	if err := fn(); err != nil {
		sm.setState(StateFailed)
		return false
	}
	sm.setState(StateStopped)
	return true
}

// SetFailed is the plug-in-facing signal for an asynchronous failure
// detected outside of Start/Stop (e.g. a writer's consumer goroutine
// losing its connection). It transitions directly to Failed without
// going through Stop, so the supervisor may restart the component; it
// does not stop any already-running goroutine.
func (sm *StateMachine) SetFailed() {
	sm.state.Store(int32(StateFailed))
}
