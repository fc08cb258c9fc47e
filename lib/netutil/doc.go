// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies errors that occur during normal connection
// teardown, so read loops can tell a server hanging up from a real
// failure.
package netutil
