// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statefile writes and reads the status snapshot a running
// client leaves on disk, so that other processes (health checks, the
// "parley status" command) can see the connection and session state
// without talking to the client.
//
// The file is CBOR (lib/codec) and written atomically: temporary file
// in the same directory, fsync, rename, fsync of the directory.
// Readers never see a partial snapshot. [Check] discards snapshots
// older than a caller-supplied age, so a file left behind by a process
// that died is reported as stale rather than current.
package statefile
