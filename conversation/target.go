// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import "strings"

// Kind distinguishes channel conversations from direct ones.
type Kind uint8

const (
	KindChannel Kind = iota
	KindDirect
)

func (kind Kind) String() string {
	switch kind {
	case KindChannel:
		return "channel"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Target is a resolved conversation reference. Values are immutable
// once produced; Envelope must not be modified by consumers.
type Target struct {
	Kind Kind

	// Name is the channel name for KindChannel and the other party's
	// nick for KindDirect.
	Name string

	// Network identifies the server connection the target belongs to.
	Network string

	// Envelope is the opaque message payload, nil when the target was
	// produced by a membership change rather than a message.
	Envelope []byte
}

// Key identifies the conversation independent of payload. Names
// compare case-insensitively.
func (target Target) Key() string {
	return target.Network + "/" + target.Kind.String() + "/" + strings.ToLower(target.Name)
}

func (target Target) String() string {
	return target.Kind.String() + ":" + target.Name
}

// IsChannelName reports whether name uses one of the channel prefixes.
func IsChannelName(name string) bool {
	return name != "" && strings.ContainsRune("#&+!", rune(name[0]))
}
