// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ircmsg

import (
	"errors"
	"fmt"
	"strings"

	ircv3 "github.com/ergochat/irc-go/ircmsg"
)

// MaxLineLength bounds a single line including tags. Servers cap the
// non-tag part at 512 bytes and tags at 8191.
const MaxLineLength = 512 + 8191

// Parser decodes one protocol line.
type Parser interface {
	Parse(line string) (Message, error)
}

// LineParser is the default Parser.
type LineParser struct{}

// Parse implements Parser.
func (LineParser) Parse(line string) (Message, error) { return Parse(line) }

// ParseError describes a line that could not be decoded. Err is the
// underlying grammar error when there is one.
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ircmsg: %s: %q", e.Reason, e.Line)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes a single line. A trailing CR, LF or CRLF is ignored.
func Parse(line string) (Message, error) {
	trimmed := strings.TrimRight(line, "\r\n")
	if len(trimmed) > MaxLineLength {
		return Message{}, &ParseError{Line: truncate(line), Reason: "line too long"}
	}
	if trimmed == "@" || strings.HasPrefix(trimmed, "@ ") {
		return Message{}, &ParseError{Line: line, Reason: "empty tag section"}
	}

	wire, err := ircv3.ParseLine(trimmed)
	if err != nil {
		return Message{}, &ParseError{Line: truncate(line), Reason: parseReason(err), Err: err}
	}
	if wire.Source == "" && hasSourcePrefix(trimmed) {
		return Message{}, &ParseError{Line: line, Reason: "empty source"}
	}
	if !validCommand(wire.Command) {
		return Message{}, &ParseError{Line: line, Reason: "invalid command"}
	}

	message := Message{
		Source:  wire.Source,
		Command: wire.Command,
		Params:  wire.Params,
	}
	if tags := wire.AllTags(); len(tags) > 0 {
		message.Tags = tags
	}
	if len(message.Params) == 0 {
		message.Params = nil
	}
	return message, nil
}

func parseReason(err error) string {
	switch {
	case errors.Is(err, ircv3.ErrorLineIsEmpty):
		return "missing command"
	case errors.Is(err, ircv3.ErrorLineContainsBadChar):
		return "embedded control character"
	case errors.Is(err, ircv3.ErrorCommandMissing):
		return "invalid command"
	case errors.Is(err, ircv3.ErrorInvalidTagContent):
		return "invalid tag"
	default:
		return err.Error()
	}
}

// hasSourcePrefix reports whether the word after any tag section
// starts with ':'.
func hasSourcePrefix(line string) bool {
	if strings.HasPrefix(line, "@") {
		_, line, _ = strings.Cut(line, " ")
	}
	return strings.HasPrefix(strings.TrimLeft(line, " "), ":")
}

// validCommand accepts a letters-only command or a three-digit numeric.
func validCommand(command string) bool {
	if isNumericCommand(command) {
		return true
	}
	if command == "" {
		return false
	}
	for i := 0; i < len(command); i++ {
		c := command[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

func truncate(line string) string {
	if len(line) <= 64 {
		return line
	}
	return line[:64] + "..."
}
