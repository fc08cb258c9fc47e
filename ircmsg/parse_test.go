// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ircmsg

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Message
	}{
		{
			name: "numeric welcome",
			line: ":irc.example.net 001 alice :Welcome to the network alice\r\n",
			want: Message{
				Source:  "irc.example.net",
				Command: "001",
				Params:  []string{"alice", "Welcome to the network alice"},
			},
		},
		{
			name: "ping without source",
			line: "PING :token-123",
			want: Message{Command: "PING", Params: []string{"token-123"}},
		},
		{
			name: "lowercase command is upper-cased",
			line: "ping token",
			want: Message{Command: "PING", Params: []string{"token"}},
		},
		{
			name: "privmsg to channel",
			line: ":bob!b@host PRIVMSG #go :hello there",
			want: Message{
				Source:  "bob!b@host",
				Command: "PRIVMSG",
				Params:  []string{"#go", "hello there"},
			},
		},
		{
			name: "mode ack",
			line: ":alice MODE alice :+i",
			want: Message{Source: "alice", Command: "MODE", Params: []string{"alice", "+i"}},
		},
		{
			name: "empty trailing",
			line: "TOPIC #go :",
			want: Message{Command: "TOPIC", Params: []string{"#go", ""}},
		},
		{
			name: "repeated spaces between params",
			line: "JOIN   #a   #b",
			want: Message{Command: "JOIN", Params: []string{"#a", "#b"}},
		},
		{
			name: "tags",
			line: `@time=2026-01-01T00:00:00Z;msgid=abc\sdef;flag :bob PRIVMSG alice :hi`,
			want: Message{
				Tags:    map[string]string{"time": "2026-01-01T00:00:00Z", "msgid": "abc def", "flag": ""},
				Source:  "bob",
				Command: "PRIVMSG",
				Params:  []string{"alice", "hi"},
			},
		},
		{
			name: "no params",
			line: "QUIT",
			want: Message{Command: "QUIT"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(test.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", test.line, err)
			}
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("Parse(%q)\n got  %#v\n want %#v", test.line, got, test.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"empty", "", "missing command"},
		{"only crlf", "\r\n", "missing command"},
		{"source only", ":server", "missing command"},
		{"empty source", ": PING", "empty source"},
		{"empty tags", "@ PING", "empty tag section"},
		{"bad command", "PR1VMSG x", "invalid command"},
		{"embedded newline", "PING a\nPING b", "embedded control character"},
		{"too long", "PING :" + strings.Repeat("x", MaxLineLength), "line too long"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.line)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) error = %v, want *ParseError", test.line, err)
			}
			if parseErr.Reason != test.reason {
				t.Errorf("reason = %q, want %q", parseErr.Reason, test.reason)
			}
		})
	}
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		command string
		code    int
		ok      bool
	}{
		{"001", 1, true},
		{"433", 433, true},
		{"PRIVMSG", 0, false},
		{"12", 0, false},
		{"1234", 0, false},
	}
	for _, test := range tests {
		code, ok := Message{Command: test.command}.Numeric()
		if code != test.code || ok != test.ok {
			t.Errorf("Numeric(%q) = %d, %v; want %d, %v", test.command, code, ok, test.code, test.ok)
		}
	}
}

func TestParseTagEscapes(t *testing.T) {
	tests := map[string]string{
		`plain`:      "plain",
		`a\:b`:       "a;b",
		`a\\b`:       `a\b`,
		`two\swords`: "two words",
		`line\rend`:  "line\rend",
	}
	for raw, want := range tests {
		message, err := Parse("@key=" + raw + " PING :x")
		if err != nil {
			t.Fatalf("Parse with tag %q: %v", raw, err)
		}
		if got := message.Tags["key"]; got != want {
			t.Errorf("tag %q decoded to %q, want %q", raw, got, want)
		}
	}
}

func TestParseErrorUnwrapsGrammarError(t *testing.T) {
	_, err := Parse("PING a\x00b")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse error = %v, want *ParseError", err)
	}
	if parseErr.Err == nil || !errors.Is(err, parseErr.Err) {
		t.Errorf("ParseError does not unwrap to the grammar error: %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	lines := []string{
		":irc.example.net 001 alice :Welcome to the network",
		"PING :token",
		"@a=1;b=x\\sy :bob PRIVMSG #go :hi there",
		"JOIN #go",
		"TOPIC #go :",
	}
	for _, line := range lines {
		message, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		again, err := Parse(message.String())
		if err != nil {
			t.Fatalf("Parse(String()) for %q: %v", line, err)
		}
		if !reflect.DeepEqual(message, again) {
			t.Errorf("round trip of %q\n got  %#v\n want %#v", line, again, message)
		}
	}
}

func TestSourceNick(t *testing.T) {
	tests := map[string]string{
		"bob!b@host":      "bob",
		"bob@host":        "bob",
		"irc.example.net": "irc.example.net",
		"":                "",
	}
	for source, want := range tests {
		if got := (Message{Source: source}).SourceNick(); got != want {
			t.Errorf("SourceNick(%q) = %q, want %q", source, got, want)
		}
	}
}

func TestBuilders(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Nick("alice"), "NICK alice\r\n"},
		{User("alice", "Alice Liddell"), "USER alice 0 * :Alice Liddell\r\n"},
		{User("alice", ""), "USER alice 0 * :alice\r\n"},
		{Pass("secret"), "PASS secret\r\n"},
		{Quit(""), "QUIT\r\n"},
		{Quit("bye now"), "QUIT :bye now\r\n"},
		{Pong("abc"), "PONG :abc\r\n"},
		{Privmsg("#go", "two\nlines"), "PRIVMSG #go :two lines\r\n"},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("got %q, want %q", test.got, test.want)
		}
	}
}
