// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"strings"

	"github.com/bureau-foundation/parley/ircmsg"
)

// Resolver maps decoded messages to conversation targets.
type Resolver struct {
	// Network is copied into every Target.
	Network string

	// Self returns the client's current nick. It is consulted per
	// message because the server may assign a different nick at
	// registration.
	Self func() string
}

// ResolveOne returns the target for message, if it has one.
//
//   - PRIVMSG or NOTICE to a channel: that channel.
//   - PRIVMSG or NOTICE to our nick: a direct target named after the
//     sender.
//   - JOIN by us: the joined channel, with no envelope.
//
// Everything else, including server notices, has no target.
func (resolver *Resolver) ResolveOne(message ircmsg.Message) (Target, bool) {
	switch message.Command {
	case "PRIVMSG", "NOTICE":
		recipient := message.Param(0)
		if len(message.Params) < 2 || recipient == "" {
			return Target{}, false
		}
		envelope := []byte(message.Trailing())
		if IsChannelName(recipient) {
			return Target{Kind: KindChannel, Name: recipient, Network: resolver.Network, Envelope: envelope}, true
		}
		sender := message.SourceNick()
		if !resolver.isSelf(recipient) || !strings.Contains(message.Source, "!") {
			return Target{}, false
		}
		return Target{Kind: KindDirect, Name: sender, Network: resolver.Network, Envelope: envelope}, true

	case "JOIN":
		channel := message.Param(0)
		if !IsChannelName(channel) || !resolver.isSelf(message.SourceNick()) {
			return Target{}, false
		}
		return Target{Kind: KindChannel, Name: channel, Network: resolver.Network}, true
	}
	return Target{}, false
}

// Resolve maps messages in order, dropping those without a target.
func (resolver *Resolver) Resolve(messages []ircmsg.Message) []Target {
	var targets []Target
	for _, message := range messages {
		if target, ok := resolver.ResolveOne(message); ok {
			targets = append(targets, target)
		}
	}
	return targets
}

func (resolver *Resolver) isSelf(nick string) bool {
	if resolver.Self == nil || nick == "" {
		return false
	}
	return strings.EqualFold(nick, resolver.Self())
}
