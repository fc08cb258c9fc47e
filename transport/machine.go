// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/parley/lib/clock"
	"github.com/bureau-foundation/parley/lib/metrics"
	"github.com/bureau-foundation/parley/lib/notify"
)

// Change is the notification published for each committed transition.
type Change struct {
	From State
	To   State

	// Err is the environmental cause for failure transitions
	// (dial error, dropped connection, registration rejection or
	// timeout). Nil for requested transitions.
	Err error

	// At is the commit time from the machine's clock.
	At time.Time
}

// MachineConfig configures a Machine.
type MachineConfig struct {
	// Name labels logs and metrics. Defaults to "transport".
	Name string

	// Logger receives one line per committed transition. If nil,
	// slog.Default() is used.
	Logger *slog.Logger

	// Clock stamps Change.At. If nil, clock.Real() is used.
	Clock clock.Clock
}

// Machine holds the canonical connection state. All methods are safe
// for concurrent use; transitions are serialized.
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
	name := config.Name
	if name == "" {
		name = "transport"
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeSource := config.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	recordPhase(name, PhaseOffline)
	return &Machine{
		name:    name,
		logger:  logger,
		clock:   timeSource,
		current: Offline{},
	}
}

// State returns the committed state.
func (machine *Machine) State() State {
	machine.mutex.Lock()
	defer machine.mutex.Unlock()
	return machine.current
}

// Phase returns the committed state's phase.
func (machine *Machine) Phase() Phase {
	return machine.State().Phase()
}

// Transition commits next. It panics with *TransitionError when the
// current phase does not allow next.
func (machine *Machine) Transition(next State) {
	machine.transition(next, nil)
}

// Fail commits next and records cause as the reason. It is for
// environmental failures; the same table applies.
func (machine *Machine) Fail(next State, cause error) {
	machine.transition(next, cause)
}

func (machine *Machine) transition(next State, cause error) {
	machine.mutex.Lock()
	defer machine.mutex.Unlock()

	from := machine.current
	if next == nil || !CanTransition(from.Phase(), next.Phase()) {
		to := Phase(255)
		if next != nil {
			to = next.Phase()
		}
		panic(&TransitionError{Machine: machine.name, From: from.Phase(), To: to})
	}

	machine.current = next
	change := Change{From: from, To: next, Err: cause, At: machine.clock.Now()}

	// Side effects below run only after the commit above.
	metrics.Transitions.WithLabelValues(machine.name, from.Phase().String(), next.Phase().String()).Inc()
	recordPhase(machine.name, next.Phase())
	machine.log(change)
	machine.observers.Publish(change)
}

// recordPhase sets the state gauge of machine name to 1 for current
// and 0 for every other phase.
func recordPhase(name string, current Phase) {
	for phase := range Phase(phaseCount) {
		value := 0.0
		if phase == current {
			value = 1
		}
		metrics.ConnectionState.WithLabelValues(name, phase.String()).Set(value)
	}
}

func (machine *Machine) log(change Change) {
	attributes := []any{
		"machine", machine.name,
		"from", change.From.Phase().String(),
		"to", change.To.Phase().String(),
	}
	switch state := change.To.(type) {
	case Registering:
		attributes = append(attributes, "nick", string(state.Nick))
	case Online:
		attributes = append(attributes, "nick", string(state.Nick))
	}
	if change.Err != nil {
		machine.logger.Warn("connection state changed", append(attributes, "error", change.Err)...)
		return
	}
	machine.logger.Info("connection state changed", attributes...)
}

// Subscribe returns an ordered feed of future changes. Close the
// subscription when done.
func (machine *Machine) Subscribe() *notify.Subscription[Change] {
	return machine.observers.Subscribe()
}

// Close ends every subscription. The machine keeps working; later
// subscriptions are closed immediately.
func (machine *Machine) Close() {
	machine.observers.Close()
}
