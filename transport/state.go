// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

// Phase names a connection lifecycle state without its payload.
type Phase uint8

const (
	PhaseOffline Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseRegistering
	PhaseOnline
	PhaseDeregistering
	PhaseDisconnected
)

// phaseCount is the number of defined phases.
const phaseCount = int(PhaseDisconnected) + 1

func (phase Phase) String() string {
	switch phase {
	case PhaseOffline:
		return "offline"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseRegistering:
		return "registering"
	case PhaseOnline:
		return "online"
	case PhaseDeregistering:
		return "deregistering"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Nickname is the identity presented to the server.
type Nickname string

// UserInfo is the user identity sent during registration.
type UserInfo struct {
	Username string
	RealName string
}

// State is one of Offline, Connecting, Connected, Registering, Online,
// Deregistering or Disconnected. The set is closed.
type State interface {
	Phase() Phase
	String() string
	isState()
}

type (
	// Offline: no connection.
	Offline struct{}
	// Connecting: dialing the server.
	Connecting struct{}
	// Connected: the socket is open; registration not yet sent.
	Connected struct{}
	// Deregistering: QUIT sent, waiting for the server to close.
	Deregistering struct{}
	// Disconnected: the server closed after a requested QUIT.
	Disconnected struct{}
)

// Registering: registration sent, waiting for the server's verdict.
type Registering struct {
	Channel Conn
	Nick    Nickname
	User    UserInfo
}

// Online: registered; normal traffic flows on Channel.
type Online struct {
	Channel Conn
	Nick    Nickname
	User    UserInfo
}

func (Offline) Phase() Phase       { return PhaseOffline }
func (Connecting) Phase() Phase    { return PhaseConnecting }
func (Connected) Phase() Phase     { return PhaseConnected }
func (Registering) Phase() Phase   { return PhaseRegistering }
func (Online) Phase() Phase        { return PhaseOnline }
func (Deregistering) Phase() Phase { return PhaseDeregistering }
func (Disconnected) Phase() Phase  { return PhaseDisconnected }

func (Offline) String() string       { return PhaseOffline.String() }
func (Connecting) String() string    { return PhaseConnecting.String() }
func (Connected) String() string     { return PhaseConnected.String() }
func (Deregistering) String() string { return PhaseDeregistering.String() }
func (Disconnected) String() string  { return PhaseDisconnected.String() }

func (state Registering) String() string { return "registering(" + string(state.Nick) + ")" }
func (state Online) String() string      { return "online(" + string(state.Nick) + ")" }

func (Offline) isState()       {}
func (Connecting) isState()    {}
func (Connected) isState()     {}
func (Registering) isState()   {}
func (Online) isState()        {}
func (Deregistering) isState() {}
func (Disconnected) isState()  {}
