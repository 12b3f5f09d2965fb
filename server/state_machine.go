// Package server composes the registries, the action executor and
// the message router into a [minichain.Runtime], and enforces the
// runtime lifecycle.
package server

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blockberries/minichain"
)

// lifecycleState represents a state in the runtime lifecycle.
type lifecycleState uint32

const (
	// stateInit: constructed, not yet started. Operations fail with
	// Unavailable.
	stateInit lifecycleState = iota
	// stateRunning: Start completed. All operations are allowed and
	// may run concurrently.
	stateRunning
	// stateStopped: Stop was called. Operations fail with
	// Unavailable; pending messages stay pending.
	stateStopped
)

func (s lifecycleState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateRunning:
		return "Running"
	case stateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// LifecycleGuard enforces Init → Running → Stopped and tracks
// operations in flight so Stop can wait for them.
type LifecycleGuard struct {
	state atomic.Uint32
	// Held shared by every operation, exclusively by Stop.
	inflight sync.RWMutex
}

// NewLifecycleGuard creates a guard in the Init state.
func NewLifecycleGuard() *LifecycleGuard {
	g := &LifecycleGuard{}
	g.state.Store(uint32(stateInit))
	return g
}

// State returns the current lifecycle state.
func (g *LifecycleGuard) State() string {
	return lifecycleState(g.state.Load()).String()
}

// Start transitions Init → Running.
func (g *LifecycleGuard) Start() error {
	if !g.state.CompareAndSwap(uint32(stateInit), uint32(stateRunning)) {
		return &minichain.Error{
			Code: minichain.Unavailable,
			Op:   "start",
			Msg:  fmt.Sprintf("runtime is %s (expected Init)", lifecycleState(g.state.Load())),
		}
	}
	return nil
}

// Stop transitions to Stopped and blocks until every operation that
// entered before it has left. It reports whether this call performed
// the transition.
func (g *LifecycleGuard) Stop() bool {
	g.inflight.Lock()
	defer g.inflight.Unlock()
	return lifecycleState(g.state.Swap(uint32(stateStopped))) != stateStopped
}

// Enter admits an operation. On success the caller must call Leave.
func (g *LifecycleGuard) Enter(op string) error {
	g.inflight.RLock()
	if state := lifecycleState(g.state.Load()); state != stateRunning {
		g.inflight.RUnlock()
		return &minichain.Error{
			Code: minichain.Unavailable,
			Op:   op,
			Msg:  fmt.Sprintf("runtime is %s", state),
		}
	}
	return nil
}

// Leave releases an operation admitted by Enter.
func (g *LifecycleGuard) Leave() {
	g.inflight.RUnlock()
}

// IsRunning returns true if the guard is in the Running state.
func (g *LifecycleGuard) IsRunning() bool {
	return lifecycleState(g.state.Load()) == stateRunning
}
