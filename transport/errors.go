// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned by Connect when the client is not Offline.
	ErrBusy = errors.New("transport: connection already in progress")

	// ErrNotOnline is returned by Send outside the Online phase.
	ErrNotOnline = errors.New("transport: not online")

	// ErrAborted is returned by Connect when Disconnect ran while the
	// dial was in flight.
	ErrAborted = errors.New("transport: connect aborted")

	// ErrConnectionClosed wraps the read error when the server closes
	// the socket outside of a requested disconnect.
	ErrConnectionClosed = errors.New("transport: connection closed by server")
)

// ConnectError reports a failed dial.
type ConnectError struct {
	Endpoint Endpoint
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("transport: connecting to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
