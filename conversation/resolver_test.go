// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"testing"

	"github.com/bureau-foundation/parley/ircmsg"
)

func parseAll(t *testing.T, lines ...string) []ircmsg.Message {
	t.Helper()
	messages := make([]ircmsg.Message, 0, len(lines))
	for _, line := range lines {
		message, err := ircmsg.Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		messages = append(messages, message)
	}
	return messages
}

func newTestResolver() *Resolver {
	return &Resolver{Network: "example", Self: func() string { return "Parley" }}
}

func TestResolveOne(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     Target
		resolved bool
	}{
		{
			name:     "channel message",
			line:     ":alice!a@host PRIVMSG #go :hello all",
			want:     Target{Kind: KindChannel, Name: "#go", Network: "example", Envelope: []byte("hello all")},
			resolved: true,
		},
		{
			name:     "direct message matches nick case-insensitively",
			line:     ":bob!b@host PRIVMSG parley :psst",
			want:     Target{Kind: KindDirect, Name: "bob", Network: "example", Envelope: []byte("psst")},
			resolved: true,
		},
		{
			name:     "channel notice",
			line:     ":ChanServ!s@services NOTICE &local :topic set",
			want:     Target{Kind: KindChannel, Name: "&local", Network: "example", Envelope: []byte("topic set")},
			resolved: true,
		},
		{
			name:     "our join",
			line:     ":Parley!p@host JOIN #go",
			want:     Target{Kind: KindChannel, Name: "#go", Network: "example"},
			resolved: true,
		},
		{name: "someone else's join", line: ":alice!a@host JOIN #go"},
		{name: "server notice", line: ":irc.example.net NOTICE parley :*** You are connected"},
		{name: "message to another nick", line: ":alice!a@host PRIVMSG carol :hi"},
		{name: "message without text", line: ":alice!a@host PRIVMSG #go"},
		{name: "numeric", line: ":irc.example.net 001 parley :Welcome"},
		{name: "part", line: ":Parley!p@host PART #go"},
	}
	resolver := newTestResolver()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := resolver.ResolveOne(parseAll(t, test.line)[0])
			if ok != test.resolved {
				t.Fatalf("resolved = %v, want %v (target %s)", ok, test.resolved, got)
			}
			if !ok {
				return
			}
			if got.Kind != test.want.Kind || got.Name != test.want.Name || got.Network != test.want.Network ||
				string(got.Envelope) != string(test.want.Envelope) {
				t.Errorf("target = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestResolvePreservesOrder(t *testing.T) {
	messages := parseAll(t,
		":alice!a@host PRIVMSG #go :one",
		":irc.example.net 372 parley :- motd",
		":bob!b@host PRIVMSG parley :two",
		":alice!a@host PRIVMSG #rust :three",
	)
	targets := newTestResolver().Resolve(messages)

	want := []string{"channel:#go", "direct:bob", "channel:#rust"}
	if len(targets) != len(want) {
		t.Fatalf("got %d targets, want %d", len(targets), len(want))
	}
	for i, target := range targets {
		if target.String() != want[i] {
			t.Errorf("targets[%d] = %s, want %s", i, target, want[i])
		}
	}
}

func TestResolverWithoutSelf(t *testing.T) {
	resolver := &Resolver{Network: "example"}
	if _, ok := resolver.ResolveOne(parseAll(t, ":bob!b@host PRIVMSG parley :hi")[0]); ok {
		t.Error("direct message resolved without a known nick")
	}
}

func TestTargetKey(t *testing.T) {
	a := Target{Kind: KindChannel, Name: "#Go", Network: "example", Envelope: []byte("x")}
	b := Target{Kind: KindChannel, Name: "#go", Network: "example"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	c := Target{Kind: KindDirect, Name: "#go", Network: "example"}
	if a.Key() == c.Key() {
		t.Errorf("channel and direct targets share key %q", a.Key())
	}
}

func TestIsChannelName(t *testing.T) {
	for name, want := range map[string]bool{"#go": true, "&local": true, "+modeless": true, "!12345chan": true, "alice": false, "": false} {
		if got := IsChannelName(name); got != want {
			t.Errorf("IsChannelName(%q) = %v, want %v", name, got, want)
		}
	}
}
