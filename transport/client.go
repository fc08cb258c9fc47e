// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/parley/ircmsg"
	"github.com/bureau-foundation/parley/lib/clock"
	"github.com/bureau-foundation/parley/lib/metrics"
	"github.com/bureau-foundation/parley/lib/netutil"
)

// DefaultRegistrationTimeout bounds the Registering phase when
// ClientConfig.RegistrationTimeout is zero.
const DefaultRegistrationTimeout = 30 * time.Second

// ClientConfig configures a Client.
type ClientConfig struct {
	// Name labels logs and metrics for this connection. Defaults to
	// "transport".
	Name string

	// Endpoint is the server to connect to.
	Endpoint Endpoint

	// Dialer opens the connection. Required.
	Dialer Dialer

	// Nick and User are sent during registration. Nick is required.
	Nick Nickname
	User UserInfo

	// Password, when set, is sent as PASS before NICK and USER.
	Password string

	// RegistrationTimeout bounds how long the server may take to
	// accept or reject the registration. Zero means
	// DefaultRegistrationTimeout.
	RegistrationTimeout time.Duration

	// Reconnect controls Run's behavior after an unexpected drop.
	Reconnect ReconnectPolicy

	// Parser decodes inbound lines. Defaults to ircmsg.LineParser.
	Parser ircmsg.Parser

	// OnMessage receives every decoded message that arrives while
	// Online, except PING. It runs on the read goroutine; a slow
	// handler delays reading.
	OnMessage func(ircmsg.Message)

	// Clock drives the registration timeout and reconnect backoff.
	// Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client drives one logical connection through the Machine. It owns
// the socket, the read goroutine, and the registration timer; every
// state change it makes is a checked Machine transition.
type Client struct {
	config  ClientConfig
	machine *Machine
	parser  ircmsg.Parser
	clock   clock.Clock
	logger  *slog.Logger

	// mutex serializes every phase decision with the transition that
	// follows it, so the read loop, the registration timer and API
	// callers never race on the same edge.
	mutex             sync.Mutex
	conn              Conn
	attempt           string
	cancelDial        context.CancelFunc
	readDone          chan struct{}
	registrationTimer *clock.Timer
	lastErr           error
	stopped           bool
}

// NewClient returns a Client in the Offline state.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Dialer == nil {
		return nil, errors.New("transport: ClientConfig.Dialer is required")
	}
	if config.Nick == "" {
		return nil, errors.New("transport: ClientConfig.Nick is required")
	}
	if config.User.Username == "" {
		config.User.Username = string(config.Nick)
	}
	if config.RegistrationTimeout <= 0 {
		config.RegistrationTimeout = DefaultRegistrationTimeout
	}
	config.Reconnect = config.Reconnect.withDefaults()
	if config.Name == "" {
		config.Name = "transport"
	}

	parser := config.Parser
	if parser == nil {
		parser = ircmsg.LineParser{}
	}
	timeSource := config.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		machine: NewMachine(MachineConfig{
			Name:   config.Name,
			Logger: logger,
			Clock:  timeSource,
		}),
		parser: parser,
		clock:  timeSource,
		logger: logger.With("server", config.Endpoint.String()),
	}, nil
}

// Machine returns the connection state machine for observation.
// Callers must not transition it directly while the Client is in use.
func (c *Client) Machine() *Machine { return c.machine }

// State returns the committed connection state.
func (c *Client) State() State { return c.machine.State() }

// LastError returns the cause of the most recent failure transition to
// Offline, or nil when the last move to Offline was requested.
func (c *Client) LastError() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lastErr
}

// Connect dials the server and sends the registration. It returns
// once Registering is committed; use WaitOnline for the verdict.
// Returns ErrBusy unless the client is Offline.
func (c *Client) Connect(ctx context.Context) error {
	c.mutex.Lock()
	if c.machine.Phase() != PhaseOffline {
		c.mutex.Unlock()
		return ErrBusy
	}
	attempt := uuid.NewString()
	dialContext, cancel := context.WithCancel(ctx)
	c.attempt = attempt
	c.cancelDial = cancel
	c.lastErr = nil
	c.machine.Transition(Connecting{})
	c.mutex.Unlock()

	logger := c.logger.With("attempt", attempt)
	logger.Debug("dialing")
	conn, dialErr := c.config.Dialer.Dial(dialContext, c.config.Endpoint)
	cancel()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.attempt != attempt || c.machine.Phase() != PhaseConnecting {
		// Disconnect ran while the dial was in flight.
		if conn != nil {
			conn.Close()
		}
		return ErrAborted
	}
	c.cancelDial = nil
	if dialErr != nil {
		c.offlineLocked(dialErr)
		return dialErr
	}

	c.conn = conn
	c.machine.Transition(Connected{})
	logger.Debug("connected", "remote", conn.RemoteAddress())

	if err := conn.Send([]byte(c.registrationLines())); err != nil {
		err = fmt.Errorf("transport: sending registration: %w", err)
		c.teardownLocked(err)
		return err
	}

	c.machine.Transition(Registering{Channel: conn, Nick: c.config.Nick, User: c.config.User})
	readDone := make(chan struct{})
	c.readDone = readDone
	c.registrationTimer = c.clock.AfterFunc(c.config.RegistrationTimeout, func() {
		c.registrationExpired(conn)
	})
	go c.readLoop(conn, readDone)
	return nil
}

func (c *Client) registrationLines() string {
	var lines strings.Builder
	if c.config.Password != "" {
		lines.WriteString(ircmsg.Pass(c.config.Password))
	}
	lines.WriteString(ircmsg.Nick(string(c.config.Nick)))
	lines.WriteString(ircmsg.User(c.config.User.Username, c.config.User.RealName))
	return lines.String()
}

// WaitOnline blocks until the connection is Online, or returns the
// cause when it falls back to Offline first.
func (c *Client) WaitOnline(ctx context.Context) error {
	subscription := c.machine.Subscribe()
	defer subscription.Close()

	switch c.machine.Phase() {
	case PhaseOnline:
		return nil
	case PhaseOffline:
		return c.offlineCause()
	}

	for {
		select {
		case change, ok := <-subscription.C():
			if !ok {
				return ErrNotOnline
			}
			switch change.To.Phase() {
			case PhaseOnline:
				return nil
			case PhaseOffline:
				if change.Err != nil {
					return change.Err
				}
				return ErrNotOnline
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) offlineCause() error {
	if err := c.LastError(); err != nil {
		return err
	}
	return ErrNotOnline
}

// Send writes a raw line (CRLF included) while Online.
func (c *Client) Send(line string) error {
	c.mutex.Lock()
	conn := c.conn
	online := c.machine.Phase() == PhaseOnline
	c.mutex.Unlock()

	if !online || conn == nil {
		return ErrNotOnline
	}
	if err := conn.Send([]byte(line)); err != nil {
		return fmt.Errorf("transport: sending: %w", err)
	}
	return nil
}

// Disconnect ends the connection. From Registering or Online it moves
// to Deregistering, sends QUIT and waits for the server to close the
// socket (Disconnected, then Offline). If ctx ends first the socket is
// closed and the machine fails to Offline with ctx's error. Disconnect
// on an Offline client is a no-op. It also stops Run from reconnecting.
func (c *Client) Disconnect(ctx context.Context, reason string) error {
	c.mutex.Lock()
	c.stopped = true

	var (
		conn     Conn
		readDone chan struct{}
		sendQuit bool
	)
	switch c.machine.Phase() {
	case PhaseOffline, PhaseDisconnected:
		c.mutex.Unlock()
		return nil
	case PhaseConnecting:
		if c.cancelDial != nil {
			c.cancelDial()
			c.cancelDial = nil
		}
		c.attempt = ""
		c.offlineLocked(nil)
		c.mutex.Unlock()
		return nil
	case PhaseConnected:
		c.teardownLocked(nil)
		c.mutex.Unlock()
		return nil
	case PhaseRegistering, PhaseOnline:
		conn = c.conn
		readDone = c.readDone
		c.registrationTimer.Stop()
		c.machine.Transition(Deregistering{})
		sendQuit = true
	case PhaseDeregistering:
		// Another Disconnect is already waiting; wait alongside it.
		conn = c.conn
		readDone = c.readDone
	}
	c.mutex.Unlock()

	if sendQuit {
		if err := conn.Send([]byte(ircmsg.Quit(reason))); err != nil {
			c.logger.Debug("sending QUIT failed, closing", "error", err)
			conn.Close()
		}
	}

	select {
	case <-readDone:
		return nil
	case <-ctx.Done():
		c.mutex.Lock()
		if c.conn == conn && c.machine.Phase() == PhaseDeregistering {
			c.teardownLocked(fmt.Errorf("transport: waiting for server to close: %w", ctx.Err()))
		}
		c.mutex.Unlock()
		<-readDone
		return ctx.Err()
	}
}

// Close disconnects with a short grace period and ends every state
// subscription.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.Disconnect(ctx, "")
	c.machine.Close()
	return err
}

func (c *Client) readLoop(conn Conn, readDone chan struct{}) {
	defer close(readDone)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			c.connectionLost(conn, err)
			return
		}
		if line == "" {
			continue
		}

		message, err := c.parser.Parse(line)
		if err != nil {
			c.abort(conn, err)
			return
		}

		if message.Command == "PING" {
			if err := conn.Send([]byte(ircmsg.Pong(message.Trailing()))); err != nil {
				c.connectionLost(conn, err)
				return
			}
			continue
		}

		deliver, stop := c.handle(conn, message)
		if stop {
			return
		}
		if deliver && c.config.OnMessage != nil {
			c.config.OnMessage(message)
		}
	}
}

// handle applies message to the lifecycle. It reports whether the
// message should go to OnMessage and whether the read loop must stop.
func (c *Client) handle(conn Conn, message ircmsg.Message) (deliver, stop bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != conn {
		return false, true
	}

	switch state := c.machine.State().(type) {
	case Registering:
		switch ClassifyRegistration(message) {
		case SignalSuccess:
			c.registrationTimer.Stop()
			nick := state.Nick
			if code, _ := message.Numeric(); code == ircmsg.RplWelcome && message.Param(0) != "" {
				nick = Nickname(message.Param(0))
			}
			c.machine.Transition(Online{Channel: state.Channel, Nick: nick, User: state.User})
			metrics.Registrations.WithLabelValues("success").Inc()
		case SignalRejected:
			code, _ := message.Numeric()
			metrics.Registrations.WithLabelValues("rejected").Inc()
			c.teardownLocked(&RegistrationError{Code: code, Message: message.Trailing()})
			return false, true
		}
		return false, false

	case Online:
		if message.Command == "ERROR" {
			c.logger.Warn("server error", "message", message.Trailing())
		}
		return true, false

	default:
		if message.Command == "ERROR" {
			c.logger.Debug("server closing link", "message", message.Trailing())
		}
		return false, false
	}
}

func (c *Client) registrationExpired(conn Conn) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != conn || c.machine.Phase() != PhaseRegistering {
		return
	}
	metrics.Registrations.WithLabelValues("timeout").Inc()
	c.teardownLocked(ErrRegistrationTimeout)
}

// abort tears down conn after a local failure such as an undecodable
// line.
func (c *Client) abort(conn Conn, cause error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != conn {
		return
	}
	c.teardownLocked(fmt.Errorf("transport: %w", cause))
}

// connectionLost handles the read side ending. During Deregistering
// this is the server honoring QUIT.
func (c *Client) connectionLost(conn Conn, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != conn {
		return
	}

	if c.machine.Phase() == PhaseDeregistering {
		c.conn = nil
		conn.Close()
		c.machine.Transition(Disconnected{})
		c.offlineLocked(nil)
		return
	}

	if netutil.IsExpectedCloseError(err) {
		err = fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	} else {
		err = fmt.Errorf("transport: reading: %w", err)
	}
	c.teardownLocked(err)
}

// teardownLocked closes the current socket and moves to Offline with
// cause. Caller holds c.mutex.
func (c *Client) teardownLocked(cause error) {
	c.registrationTimer.Stop()
	c.registrationTimer = nil
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.offlineLocked(cause)
}

func (c *Client) offlineLocked(cause error) {
	c.lastErr = cause
	if cause != nil {
		c.machine.Fail(Offline{}, cause)
		return
	}
	c.machine.Transition(Offline{})
}
