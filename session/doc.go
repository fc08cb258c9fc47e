// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session tracks account-level reachability: whether the user
// is Suspended, Offline, Connecting or Online. It is a peer of the
// transport connection machine with its own, smaller transition table:
//
//	Suspended  → Offline
//	Offline    → Connecting
//	Connecting → Suspended, Offline, Online
//	Online     → Connecting, Offline, Suspended
//
// [Machine] enforces the table the same way transport.Machine does:
// an edge outside it panics with [*TransitionError].
//
// [Tracker] derives the session state from transport changes. It only
// ever walks legal edges, and while the session is suspended it records
// transport changes without applying them until [Tracker.Resume].
package session
