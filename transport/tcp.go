// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/parley/ircmsg"
)

// Compile-time interface checks.
var (
	_ Dialer = (*TCPDialer)(nil)
	_ Conn   = (*lineConn)(nil)
)

// TCPDialer opens plain or TLS TCP connections. TLS is used when the
// endpoint asks for it.
type TCPDialer struct {
	// Timeout is the maximum time to wait for the TCP (and TLS)
	// handshake. Zero means only the context deadline applies.
	Timeout time.Duration

	// TLSConfig is cloned for each TLS dial. When nil a default
	// config is used with ServerName taken from the endpoint host.
	TLSConfig *tls.Config

	// WriteTimeout bounds each Send. Zero means no deadline.
	WriteTimeout time.Duration
}

// Dial connects to endpoint.
func (d *TCPDialer) Dial(ctx context.Context, endpoint Endpoint) (Conn, error) {
	netDialer := &net.Dialer{Timeout: d.Timeout}

	var (
		socket net.Conn
		err    error
	)
	if endpoint.TLS {
		config := &tls.Config{}
		if d.TLSConfig != nil {
			config = d.TLSConfig.Clone()
		}
		if config.ServerName == "" {
			config.ServerName = endpoint.Host
		}
		tlsDialer := &tls.Dialer{NetDialer: netDialer, Config: config}
		socket, err = tlsDialer.DialContext(ctx, "tcp", endpoint.Address())
	} else {
		socket, err = netDialer.DialContext(ctx, "tcp", endpoint.Address())
	}
	if err != nil {
		return nil, &ConnectError{Endpoint: endpoint, Err: err}
	}
	return NewLineConn(socket, d.WriteTimeout), nil
}

// lineConn frames a stream socket into CRLF (or bare LF) terminated
// lines.
type lineConn struct {
	socket       net.Conn
	scanner      *bufio.Scanner
	writeTimeout time.Duration

	writeMutex sync.Mutex
	closeOnce  sync.Once
	closeErr   error
}

// NewLineConn wraps a stream socket as a Conn. Lines longer than
// ircmsg.MaxLineLength fail the read with bufio.ErrTooLong.
func NewLineConn(socket net.Conn, writeTimeout time.Duration) Conn {
	scanner := bufio.NewScanner(socket)
	scanner.Buffer(make([]byte, 0, 4096), ircmsg.MaxLineLength+2)
	return &lineConn{
		socket:       socket,
		scanner:      scanner,
		writeTimeout: writeTimeout,
	}
}

func (c *lineConn) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading line: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
}

func (c *lineConn) Send(line []byte) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	if c.writeTimeout > 0 {
		if err := c.socket.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("setting write deadline: %w", err)
		}
	}
	if _, err := c.socket.Write(line); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

func (c *lineConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.socket.Close()
		if errors.Is(c.closeErr, net.ErrClosed) {
			c.closeErr = nil
		}
	})
	return c.closeErr
}

func (c *lineConn) RemoteAddress() string {
	return c.socket.RemoteAddr().String()
}
