// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ircmsg

import "strings"

const crlf = "\r\n"

// Nick builds "NICK <nick>".
func Nick(nick string) string { return "NICK " + nick + crlf }

// User builds "USER <user> 0 * :<real name>". An empty real name
// falls back to user.
func User(user, realName string) string {
	if realName == "" {
		realName = user
	}
	return "USER " + user + " 0 * :" + realName + crlf
}

// Pass builds "PASS <password>".
func Pass(password string) string { return "PASS " + password + crlf }

// Quit builds "QUIT" with an optional reason.
func Quit(reason string) string {
	if reason == "" {
		return "QUIT" + crlf
	}
	return "QUIT :" + reason + crlf
}

// Pong answers a PING carrying token.
func Pong(token string) string { return "PONG :" + token + crlf }

// Privmsg builds "PRIVMSG <target> :<text>". Line breaks in text are
// replaced with spaces so one call never produces two lines.
func Privmsg(target, text string) string {
	text = strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
	return "PRIVMSG " + target + " :" + text + crlf
}
