// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ircmsg decodes and builds IRC protocol lines.
//
// The grammar itself (tag escaping, source, parameters) is handled by
// github.com/ergochat/irc-go/ircmsg; this package adds the checks the
// transport relies on and a value type with reply-code helpers.
//
// [Parse] turns one line (with or without its CR/LF terminator) into a
// [Message]: optional IRCv3 tags, optional source prefix, a command
// word or three-digit numeric, and its parameters. Malformed input is
// reported as a [*ParseError]; the transport treats that as an
// environmental failure of the connection, never as a programming
// fault.
//
// The builders ([Nick], [User], [Pass], [Quit], [Pong], [Privmsg])
// return complete lines ready for the wire, including the CRLF.
//
// The transport consumes parsing through the [Parser] interface so a
// different grammar can be substituted; [LineParser] is the default.
package ircmsg
