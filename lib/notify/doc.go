// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package notify fans state changes out to observers.
//
// A [Broadcaster] never blocks its publisher: each [Subscription] owns
// an unbounded pending list and a pump goroutine that moves values onto
// the subscription's channel in publish order. A slow observer delays
// only itself. The state machines publish while holding their own lock,
// immediately after committing the new state, so every observer sees
// changes in commit order and never sees a change whose state is not
// yet readable.
package notify
