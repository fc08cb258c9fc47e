// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package conversation turns decoded server traffic into resolved
// conversation targets and feeds them to a delivery pipeline.
//
// A [Target] names one conversation (a channel, or a direct exchange
// with another nick) and carries an opaque [Target.Envelope] that is
// never inspected here. [Resolver] maps messages to targets; [Batcher]
// groups the targets produced by a burst of traffic into a single
// delivery.Pipeline batch.
package conversation
