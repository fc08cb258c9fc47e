// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/parley/ircmsg"
)

// RegistrationSignal is the verdict a decoded line carries for a
// connection that is Registering.
type RegistrationSignal uint8

const (
	// SignalNone: the line says nothing about registration.
	SignalNone RegistrationSignal = iota
	// SignalSuccess: the server accepted the registration.
	SignalSuccess
	// SignalRejected: the server answered with an error numeric.
	SignalRejected
)

func (signal RegistrationSignal) String() string {
	switch signal {
	case SignalSuccess:
		return "success"
	case SignalRejected:
		return "rejected"
	default:
		return "none"
	}
}

// ClassifyRegistration decides what message means for a pending
// registration. A MODE line or one of RPL_WELCOME, RPL_YOURHOST,
// RPL_MOTD and RPL_ENDOFMOTD is success; any numeric >= 400 is a
// rejection; everything else is SignalNone.
func ClassifyRegistration(message ircmsg.Message) RegistrationSignal {
	if message.Command == "MODE" {
		return SignalSuccess
	}
	code, ok := message.Numeric()
	if !ok {
		return SignalNone
	}
	if code >= ircmsg.ErrorThreshold {
		return SignalRejected
	}
	switch code {
	case ircmsg.RplWelcome, ircmsg.RplYourHost, ircmsg.RplMOTD, ircmsg.RplEndOfMOTD:
		return SignalSuccess
	}
	return SignalNone
}

// RegistrationError is the cause recorded when the server rejects a
// registration with an error numeric.
type RegistrationError struct {
	// Code is the numeric reply, e.g. 433 for ERR_NICKNAMEINUSE.
	Code int
	// Message is the server's trailing text.
	Message string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("transport: registration rejected (%03d): %s", e.Code, e.Message)
}

// IsRegistrationRejected reports whether err is a *RegistrationError,
// optionally for one of codes.
func IsRegistrationRejected(err error, codes ...int) bool {
	var registrationErr *RegistrationError
	if !errors.As(err, &registrationErr) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, code := range codes {
		if registrationErr.Code == code {
			return true
		}
	}
	return false
}

// ErrRegistrationTimeout is the cause recorded when the server gives
// no verdict within the registration timeout.
var ErrRegistrationTimeout = errors.New("transport: registration timed out")
