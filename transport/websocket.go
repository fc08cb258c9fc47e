// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketSubprotocol is the IRCv3 WebSocket subprotocol: one line
// per text frame, no terminator.
const WebSocketSubprotocol = "text.ircv3.net"

// Compile-time interface checks.
var (
	_ Dialer = (*WebSocketDialer)(nil)
	_ Conn   = (*webSocketConn)(nil)
)

// WebSocketDialer opens IRC-over-WebSocket connections.
type WebSocketDialer struct {
	// HandshakeTimeout bounds the HTTP upgrade. Zero means only the
	// context deadline applies.
	HandshakeTimeout time.Duration

	// TLSConfig is used for wss:// URLs.
	TLSConfig *tls.Config

	// WriteTimeout bounds each frame write. Zero means no deadline.
	WriteTimeout time.Duration
}

// Dial performs the WebSocket handshake against endpoint.URL, or a
// URL built from Host, Port and TLS when URL is empty.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint Endpoint) (Conn, error) {
	target := endpoint.URL
	if target == "" {
		scheme := "ws"
		if endpoint.TLS {
			scheme = "wss"
		}
		target = (&url.URL{Scheme: scheme, Host: endpoint.Address(), Path: "/"}).String()
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
		TLSClientConfig:  d.TLSConfig,
		Subprotocols:     []string{WebSocketSubprotocol},
	}
	socket, response, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if response != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, response.StatusCode)
		}
		return nil, &ConnectError{Endpoint: endpoint, Err: err}
	}
	return &webSocketConn{socket: socket, writeTimeout: d.WriteTimeout}, nil
}

type webSocketConn struct {
	socket       *websocket.Conn
	writeTimeout time.Duration

	// gorilla/websocket allows one concurrent writer.
	writeMutex sync.Mutex
	closeOnce  sync.Once
	closeErr   error
}

func (c *webSocketConn) ReadLine() (string, error) {
	for {
		messageType, data, err := c.socket.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("reading frame: %w", err)
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

// Send writes each CRLF-terminated line in line as its own frame.
func (c *webSocketConn) Send(line []byte) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	for _, frame := range bytes.Split(line, []byte("\r\n")) {
		if len(frame) == 0 {
			continue
		}
		if c.writeTimeout > 0 {
			if err := c.socket.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return fmt.Errorf("setting write deadline: %w", err)
			}
		}
		if err := c.socket.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
	}
	return nil
}

func (c *webSocketConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMutex.Lock()
		deadline := time.Now().Add(time.Second)
		_ = c.socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMutex.Unlock()
		c.closeErr = c.socket.Close()
	})
	return c.closeErr
}

func (c *webSocketConn) RemoteAddress() string {
	return c.socket.RemoteAddr().String()
}

// ParseWebSocketEndpoint builds an Endpoint from a ws:// or wss://
// URL, filling Host, Port and TLS from it.
func ParseWebSocketEndpoint(raw string) (Endpoint, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("transport: parsing websocket url: %w", err)
	}
	endpoint := Endpoint{Host: parsed.Hostname(), URL: raw}
	switch parsed.Scheme {
	case "ws":
		endpoint.Port = 80
	case "wss":
		endpoint.Port = 443
		endpoint.TLS = true
	default:
		return Endpoint{}, fmt.Errorf("transport: websocket url scheme must be ws or wss, got %q", parsed.Scheme)
	}
	if port := parsed.Port(); port != "" {
		number, err := strconv.Atoi(port)
		if err != nil {
			return Endpoint{}, fmt.Errorf("transport: websocket url port %q: %w", port, err)
		}
		endpoint.Port = number
	}
	return endpoint, nil
}
