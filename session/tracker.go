// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/bureau-foundation/parley/transport"
)

// ErrNotActive is returned by Suspend when the session is Offline.
// The table has no Offline → Suspended edge.
var ErrNotActive = errors.New("session: only a connecting or online session can be suspended")

// Tracker keeps a Machine in step with a transport connection.
type Tracker struct {
	machine *Machine

	mutex sync.Mutex
	// latest is the session state the transport currently implies,
	// kept up to date even while suspended.
	latest State
}

// NewTracker returns a Tracker driving machine.
func NewTracker(machine *Machine) *Tracker {
	return &Tracker{machine: machine, latest: Offline}
}

// Machine returns the tracked machine.
func (tracker *Tracker) Machine() *Machine { return tracker.machine }

// Implied maps a transport phase to the session state it implies.
func Implied(phase transport.Phase) State {
	switch phase {
	case transport.PhaseConnecting, transport.PhaseConnected, transport.PhaseRegistering:
		return Connecting
	case transport.PhaseOnline:
		return Online
	default:
		return Offline
	}
}

// Observe applies one transport change. While suspended the change is
// recorded for Resume and otherwise ignored.
func (tracker *Tracker) Observe(change transport.Change) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.latest = Implied(change.To.Phase())
	if tracker.machine.State() == Suspended {
		return
	}
	tracker.moveTo(tracker.latest)
}

// Suspend moves a Connecting or Online session to Suspended. It is a
// no-op when already suspended.
func (tracker *Tracker) Suspend() error {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	switch tracker.machine.State() {
	case Suspended:
		return nil
	case Offline:
		return ErrNotActive
	}
	tracker.machine.Transition(Suspended)
	return nil
}

// Resume leaves Suspended for Offline and then catches up with the
// transport state observed in the meantime. No-op when not suspended.
func (tracker *Tracker) Resume() {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	if tracker.machine.State() != Suspended {
		return
	}
	tracker.machine.Transition(Offline)
	tracker.moveTo(tracker.latest)
}

// moveTo walks legal edges from the current state to target.
func (tracker *Tracker) moveTo(target State) {
	current := tracker.machine.State()
	if current == target {
		return
	}
	if current == Offline && target == Online {
		// Offline has no direct edge to Online.
		tracker.machine.Transition(Connecting)
	}
	tracker.machine.Transition(target)
}

// Follow applies changes until the channel closes or ctx ends.
func (tracker *Tracker) Follow(ctx context.Context, changes <-chan transport.Change) {
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			tracker.Observe(change)
		case <-ctx.Done():
			return
		}
	}
}
