// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ircmsg

import (
	"strconv"
	"strings"

	ircv3 "github.com/ergochat/irc-go/ircmsg"
)

// Numeric reply codes the lifecycle code cares about.
const (
	RplWelcome   = 1
	RplYourHost  = 2
	RplMOTD      = 372
	RplMOTDStart = 375
	RplEndOfMOTD = 376

	ErrNoMOTD         = 422
	ErrNicknameInUse  = 433
	ErrPasswdMismatch = 464

	// ErrorThreshold is the first numeric classified as an error reply.
	ErrorThreshold = 400
)

// Message is one decoded protocol line.
type Message struct {
	// Tags holds IRCv3 message tags. Nil when the line carried none.
	Tags map[string]string

	// Source is the prefix without its leading colon, e.g.
	// "nick!user@host" or "irc.example.net". Empty when absent.
	Source string

	// Command is upper-cased: "PRIVMSG", "MODE", "001".
	Command string

	// Params are the command parameters, the trailing one included as
	// the last element.
	Params []string
}

// Numeric returns the reply code when Command is a three-digit numeric.
func (message Message) Numeric() (int, bool) {
	if !isNumericCommand(message.Command) {
		return 0, false
	}
	code, err := strconv.Atoi(message.Command)
	if err != nil {
		return 0, false
	}
	return code, true
}

// IsNumeric reports whether Command is a numeric reply.
func (message Message) IsNumeric() bool {
	_, ok := message.Numeric()
	return ok
}

// Param returns the i'th parameter, or "" when out of range.
func (message Message) Param(i int) string {
	if i < 0 || i >= len(message.Params) {
		return ""
	}
	return message.Params[i]
}

// Trailing returns the last parameter, or "".
func (message Message) Trailing() string {
	if len(message.Params) == 0 {
		return ""
	}
	return message.Params[len(message.Params)-1]
}

// SourceNick returns the nickname portion of Source.
func (message Message) SourceNick() string {
	wire := message.wire()
	return wire.Nick()
}

// String re-encodes the message without the line terminator.
func (message Message) String() string {
	wire := message.wire()
	line, err := wire.Line()
	if err != nil {
		// Only reachable for messages that were never parsed, such as
		// a middle parameter containing a space.
		return strings.TrimSpace(message.Command + " " + strings.Join(message.Params, " "))
	}
	return strings.TrimSuffix(line, "\r\n")
}

func (message Message) wire() ircv3.Message {
	return ircv3.MakeMessage(message.Tags, message.Source, message.Command, message.Params...)
}

func isNumericCommand(command string) bool {
	if len(command) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if command[i] < '0' || command[i] > '9' {
			return false
		}
	}
	return true
}
