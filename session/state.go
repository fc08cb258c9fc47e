// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "fmt"

// State is the account-level connectivity state.
type State uint8

const (
	Suspended State = iota
	Offline
	Connecting
	Online
)

const stateCount = int(Online) + 1

func (state State) String() string {
	switch state {
	case Suspended:
		return "suspended"
	case Offline:
		return "offline"
	case Connecting:
		return "connecting"
	case Online:
		return "online"
	default:
		return "unknown"
	}
}

var transitions = [stateCount][]State{
	Suspended:  {Offline},
	Offline:    {Connecting},
	Connecting: {Suspended, Offline, Online},
	Online:     {Connecting, Offline, Suspended},
}

// CanTransition reports whether from → to is in the table.
func CanTransition(from, to State) bool {
	if int(from) >= stateCount {
		return false
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionError is the panic value for an edge outside the table.
type TransitionError struct {
	Machine string
	From    State
	To      State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("session: %s: invalid transition %s -> %s", e.Machine, e.From, e.To)
}
