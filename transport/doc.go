// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport owns the client side of one chat server connection
// and the state machine that governs its lifecycle.
//
// A connection moves through seven phases:
//
//	Offline → Connecting → Connected → Registering → Online
//	                                        ↓            ↓
//	                                  Deregistering → Disconnected → Offline
//
// with a direct edge back to Offline from every phase after Offline.
// [Machine] validates each request against that table before
// committing it. A request outside the table is a programming error in
// the caller and panics with a [*TransitionError]; it is never turned
// into a returned error. Environmental failures (dial errors, dropped
// sockets, unparseable lines, registration timeouts, error numerics
// from the server) are legal transitions to Offline that carry the
// cause in [Change.Err].
//
// The [Registering] and [Online] states carry the open channel, the
// negotiated nickname and the user identity as payload, so those values
// exist only while the connection is in one of those phases.
//
// Observers call [Machine.Subscribe] and receive every committed
// [Change] in order. Publication happens after the new state is
// readable through [Machine.State] and never blocks the machine.
//
// [Client] drives a Machine from a [Dialer] (TCP/TLS via [TCPDialer],
// IRC-over-WebSocket via [WebSocketDialer], in-process via
// [PipeDialer]) and an ircmsg.Parser. While Registering it classifies
// every decoded line with [ClassifyRegistration]: a MODE
// acknowledgement or one of the welcome/host/MOTD numerics brings the
// connection Online, and any numeric at or above 400 aborts to Offline
// with a [*RegistrationError]. A registration that produces neither
// within the configured timeout aborts with [ErrRegistrationTimeout].
// [Client.Run] adds reconnection with exponential backoff.
package transport
