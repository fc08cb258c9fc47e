// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds channel helpers shared by the package tests.
//
// [RequireReceive] and [RequireClosed] wrap the
// select-with-timeout pattern so a wedged goroutine fails the test
// instead of hanging it. [RequireNoReceive] asserts the opposite: that
// nothing arrives within a short window, which is how tests check that
// a state change was not published.
//
// These helpers are the only place tests touch the wall clock; the
// lifecycle timers themselves are driven through lib/clock.Fake.
package testutil
