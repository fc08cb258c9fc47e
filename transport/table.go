// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import "fmt"

// transitions is the adjacency table: transitions[from] lists every
// phase reachable from it in one step.
var transitions = [phaseCount][]Phase{
	PhaseOffline:       {PhaseConnecting},
	PhaseConnecting:    {PhaseConnected, PhaseOffline},
	PhaseConnected:     {PhaseRegistering, PhaseOffline},
	PhaseRegistering:   {PhaseOnline, PhaseOffline, PhaseDeregistering},
	PhaseOnline:        {PhaseDeregistering, PhaseOffline},
	PhaseDeregistering: {PhaseDisconnected, PhaseOffline},
	PhaseDisconnected:  {PhaseOffline},
}

// CanTransition reports whether from → to is in the table.
func CanTransition(from, to Phase) bool {
	if int(from) >= phaseCount {
		return false
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Successors returns the phases reachable from from in one step.
func Successors(from Phase) []Phase {
	if int(from) >= phaseCount {
		return nil
	}
	return append([]Phase(nil), transitions[from]...)
}

// TransitionError is the panic value for a transition outside the
// table. It indicates a bug in the caller.
type TransitionError struct {
	Machine string
	From    Phase
	To      Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transport: %s: invalid transition %s -> %s", e.Machine, e.From, e.To)
}
