// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net"
	"strconv"
)

// Conn is an open line-oriented connection to a server.
type Conn interface {
	// ReadLine blocks until the next line arrives and returns it
	// without its terminator. Any error ends the connection.
	ReadLine() (string, error)

	// Send writes one or more complete lines. Safe to call
	// concurrently with ReadLine and with other Sends.
	Send(line []byte) error

	// Close releases the connection and unblocks ReadLine. Safe to
	// call more than once.
	Close() error

	// RemoteAddress identifies the peer for logs.
	RemoteAddress() string
}

// Endpoint identifies a server.
type Endpoint struct {
	Host string
	Port int
	TLS  bool

	// URL is the WebSocket URL (ws:// or wss://). Only the
	// WebSocketDialer uses it; when empty the dialer builds one from
	// Host, Port and TLS.
	URL string
}

// Address returns host:port.
func (endpoint Endpoint) Address() string {
	return net.JoinHostPort(endpoint.Host, strconv.Itoa(endpoint.Port))
}

func (endpoint Endpoint) String() string {
	if endpoint.URL != "" {
		return endpoint.URL
	}
	if endpoint.TLS {
		return endpoint.Address() + " (tls)"
	}
	return endpoint.Address()
}

// Dialer opens connections. Implementations return *ConnectError on
// failure.
type Dialer interface {
	Dial(ctx context.Context, endpoint Endpoint) (Conn, error)
}
