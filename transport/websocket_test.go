// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/parley/ircmsg"
	"github.com/bureau-foundation/parley/lib/netutil"
	"github.com/bureau-foundation/parley/lib/testutil"
)

func startWebSocketServer(t *testing.T) (string, <-chan *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{Subprotocols: []string{WebSocketSubprotocol}}
	accepted := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- socket
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http"), accepted
}

func TestWebSocketDialerFramesLines(t *testing.T) {
	url, accepted := startWebSocketServer(t)
	dialer := &WebSocketDialer{HandshakeTimeout: 5 * time.Second}

	conn, err := dialer.Dial(context.Background(), Endpoint{URL: url})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	server := testutil.RequireReceive(t, accepted, testTimeout, "waiting for upgrade")
	defer server.Close()

	if server.Subprotocol() != WebSocketSubprotocol {
		t.Errorf("negotiated subprotocol %q, want %q", server.Subprotocol(), WebSocketSubprotocol)
	}

	if err := conn.Send([]byte(ircmsg.Nick("parley") + ircmsg.User("parley", "Parley"))); err != nil {
		t.Fatalf("Send: %v", err)
	}
	for _, want := range []string{"NICK parley", "USER parley 0 * :Parley"} {
		messageType, data, err := server.ReadMessage()
		if err != nil {
			t.Fatalf("server ReadMessage: %v", err)
		}
		if messageType != websocket.TextMessage || string(data) != want {
			t.Fatalf("frame = (%d, %q), want text %q", messageType, data, want)
		}
	}

	if err := server.WriteMessage(websocket.TextMessage, []byte("PING :abc\r\n")); err != nil {
		t.Fatalf("server WriteMessage: %v", err)
	}
	line, err := conn.ReadLine()
	if err != nil || line != "PING :abc" {
		t.Fatalf("ReadLine = %q (%v), want %q", line, err, "PING :abc")
	}
}

func TestWebSocketCloseIsExpected(t *testing.T) {
	url, accepted := startWebSocketServer(t)
	conn, err := (&WebSocketDialer{}).Dial(context.Background(), Endpoint{URL: url})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	server := testutil.RequireReceive(t, accepted, testTimeout, "waiting for upgrade")

	server.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	server.Close()

	_, err = conn.ReadLine()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseNormalClosure {
		t.Fatalf("ReadLine = %v, want a normal close error", err)
	}
	if !netutil.IsExpectedCloseError(err) {
		t.Errorf("IsExpectedCloseError(%v) = false", err)
	}
}

func TestParseWebSocketEndpoint(t *testing.T) {
	tests := []struct {
		url     string
		want    Endpoint
		wantErr bool
	}{
		{url: "ws://irc.example.net/webirc", want: Endpoint{Host: "irc.example.net", Port: 80, URL: "ws://irc.example.net/webirc"}},
		{url: "wss://irc.example.net:8097/", want: Endpoint{Host: "irc.example.net", Port: 8097, TLS: true, URL: "wss://irc.example.net:8097/"}},
		{url: "https://irc.example.net/", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			got, err := ParseWebSocketEndpoint(test.url)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParseWebSocketEndpoint succeeded with %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWebSocketEndpoint: %v", err)
			}
			if got != test.want {
				t.Errorf("endpoint = %+v, want %+v", got, test.want)
			}
		})
	}
}
