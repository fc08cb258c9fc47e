// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
)

// Compile-time interface check.
var _ Dialer = (*PipeDialer)(nil)

// PipeDialer is an in-process Dialer backed by net.Pipe. Each Dial
// produces a PipePeer, the server end, which the caller receives from
// Accept.
type PipeDialer struct {
	accepted chan *PipePeer

	mutex   sync.Mutex
	failure error
	dials   int
}

// NewPipeDialer returns a PipeDialer that buffers up to 16 unaccepted
// peers.
func NewPipeDialer() *PipeDialer {
	return &PipeDialer{accepted: make(chan *PipePeer, 16)}
}

// FailWith makes subsequent dials fail with err. Pass nil to let
// dials succeed again.
func (d *PipeDialer) FailWith(err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.failure = err
}

// Dials returns how many times Dial has been called.
func (d *PipeDialer) Dials() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.dials
}

func (d *PipeDialer) Dial(ctx context.Context, endpoint Endpoint) (Conn, error) {
	d.mutex.Lock()
	d.dials++
	failure := d.failure
	d.mutex.Unlock()

	if failure != nil {
		return nil, &ConnectError{Endpoint: endpoint, Err: failure}
	}
	if err := ctx.Err(); err != nil {
		return nil, &ConnectError{Endpoint: endpoint, Err: err}
	}

	clientSide, serverSide := net.Pipe()
	peer := newPipePeer(serverSide)
	select {
	case d.accepted <- peer:
	default:
		clientSide.Close()
		peer.Close()
		return nil, &ConnectError{Endpoint: endpoint, Err: errors.New("pipe backlog full")}
	}
	return NewLineConn(clientSide, 0), nil
}

// Accept returns the server end of the next dialed connection.
func (d *PipeDialer) Accept(ctx context.Context) (*PipePeer, error) {
	select {
	case peer := <-d.accepted:
		return peer, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PipePeer is the server end of a PipeDialer connection. Lines the
// client writes are read continuously into Lines so client writes
// never block on the test.
type PipePeer struct {
	socket net.Conn
	lines  chan string
	closed chan struct{}

	closeOnce sync.Once
}

func newPipePeer(socket net.Conn) *PipePeer {
	peer := &PipePeer{
		socket: socket,
		lines:  make(chan string, 256),
		closed: make(chan struct{}),
	}
	go peer.readLoop()
	return peer
}

func (peer *PipePeer) readLoop() {
	defer close(peer.lines)
	scanner := bufio.NewScanner(peer.socket)
	for scanner.Scan() {
		select {
		case peer.lines <- strings.TrimSuffix(scanner.Text(), "\r"):
		case <-peer.closed:
			return
		}
	}
}

// Lines delivers each line the client sent, without terminator. The
// channel closes when the client side closes.
func (peer *PipePeer) Lines() <-chan string { return peer.lines }

// Send writes line to the client, appending CRLF when missing. It
// blocks until the client's read loop takes the line.
func (peer *PipePeer) Send(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\r\n"
	}
	if _, err := peer.socket.Write([]byte(line)); err != nil {
		return fmt.Errorf("pipe peer: writing: %w", err)
	}
	return nil
}

// Close hangs up on the client.
func (peer *PipePeer) Close() error {
	var err error
	peer.closeOnce.Do(func() {
		close(peer.closed)
		err = peer.socket.Close()
	})
	return err
}
