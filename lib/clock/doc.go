// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the connection
// lifecycle timers.
//
// The transport client arms a registration deadline when it enters the
// Registering state and sleeps between reconnect attempts. Both go
// through a [Clock] so tests can drive them deterministically:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	client, _ := transport.NewClient(transport.ClientConfig{Clock: fake, ...})
//	// ... Connect ...
//	fake.WaitForTimers(1)          // registration deadline is armed
//	fake.Advance(30 * time.Second) // fire it
//
// Production code uses [Real], which defers to the time package.
package clock
