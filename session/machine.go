// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/parley/lib/clock"
	"github.com/bureau-foundation/parley/lib/metrics"
	"github.com/bureau-foundation/parley/lib/notify"
)

// Change is published for each committed transition.
type Change struct {
	From State
	To   State
	At   time.Time
}

// MachineConfig configures a Machine.
type MachineConfig struct {
	// Name labels logs and metrics. Defaults to "session".
	Name   string
	Logger *slog.Logger
	Clock  clock.Clock
}

// Machine holds the session state. Safe for concurrent use.
type Machine struct {
	name   string
	logger *slog.Logger
	clock  clock.Clock

	mutex     sync.Mutex
	current   State
	observers notify.Broadcaster[Change]
}

// NewMachine returns a Machine in the Offline state.
func NewMachine(config MachineConfig) *Machine {
	if config.Name == "" {
		config.Name = "session"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	return &Machine{
		name:    config.Name,
		logger:  config.Logger,
		clock:   config.Clock,
		current: Offline,
	}
}

// State returns the committed state.
func (machine *Machine) State() State {
	machine.mutex.Lock()
	defer machine.mutex.Unlock()
	return machine.current
}

// Transition commits next, or panics with *TransitionError when the
// table does not allow it.
func (machine *Machine) Transition(next State) {
	machine.mutex.Lock()
	defer machine.mutex.Unlock()
	machine.transitionLocked(next)
}

func (machine *Machine) transitionLocked(next State) {
	from := machine.current
	if !CanTransition(from, next) {
		panic(&TransitionError{Machine: machine.name, From: from, To: next})
	}
	machine.current = next

	metrics.Transitions.WithLabelValues(machine.name, from.String(), next.String()).Inc()
	machine.logger.Info("session state changed",
		"machine", machine.name,
		"from", from.String(),
		"to", next.String(),
	)
	machine.observers.Publish(Change{From: from, To: next, At: machine.clock.Now()})
}

// Subscribe returns an ordered feed of future changes.
func (machine *Machine) Subscribe() *notify.Subscription[Change] {
	return machine.observers.Subscribe()
}

// Close ends every subscription.
func (machine *Machine) Close() {
	machine.observers.Close()
}
