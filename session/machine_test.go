// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"testing"
	"time"

	"github.com/bureau-foundation/parley/lib/testutil"
)

var allStates = []State{Suspended, Offline, Connecting, Online}

func catchPanic(f func()) (value any) {
	defer func() { value = recover() }()
	f()
	return nil
}

func TestTransitionTable(t *testing.T) {
	allowed := map[[2]State]bool{
		{Suspended, Offline}:    true,
		{Offline, Connecting}:   true,
		{Connecting, Suspended}: true,
		{Connecting, Offline}:   true,
		{Connecting, Online}:    true,
		{Online, Connecting}:    true,
		{Online, Offline}:       true,
		{Online, Suspended}:     true,
	}
	for _, from := range allStates {
		for _, to := range allStates {
			want := allowed[[2]State{from, to}]
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				if got := CanTransition(from, to); got != want {
					t.Fatalf("CanTransition = %v, want %v", got, want)
				}

				machine := NewMachine(MachineConfig{Name: "test"})
				machine.current = from
				panicValue := catchPanic(func() { machine.Transition(to) })

				if want {
					if panicValue != nil {
						t.Fatalf("allowed transition panicked: %v", panicValue)
					}
					if machine.State() != to {
						t.Fatalf("state = %s, want %s", machine.State(), to)
					}
					return
				}
				if _, ok := panicValue.(*TransitionError); !ok {
					t.Fatalf("panic = %#v, want *TransitionError", panicValue)
				}
				if machine.State() != from {
					t.Errorf("state changed to %s on a rejected transition", machine.State())
				}
			})
		}
	}
}

func TestMachineStartsOfflineAndPublishes(t *testing.T) {
	machine := NewMachine(MachineConfig{})
	defer machine.Close()
	if machine.State() != Offline {
		t.Fatalf("initial state = %s, want offline", machine.State())
	}

	subscription := machine.Subscribe()
	defer subscription.Close()
	machine.Transition(Connecting)
	machine.Transition(Online)

	for _, want := range []State{Connecting, Online} {
		change := testutil.RequireReceive(t, subscription.C(), 5*time.Second, "waiting for %s", want)
		if change.To != want {
			t.Fatalf("change.To = %s, want %s", change.To, want)
		}
	}
}
