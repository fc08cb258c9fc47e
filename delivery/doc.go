// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package delivery hands resolved conversation targets to application
// code one at a time, in order, without duplicates.
//
// Producers call [Pipeline.EnqueueBatch] with whatever a resolution
// pass produced; it never blocks. The consumer calls [Pipeline.Pull],
// which answers with one of three statuses:
//
//   - [Ready]: the next item, in FIFO order across all batches.
//   - [Preparing]: another pull is in flight. Nothing was dequeued;
//     retry.
//   - [Finished]: the queue is empty right now. This is not permanent;
//     a later batch makes the next pull Ready again.
//
// A two-valued [Gate] enforces that at most one pull resolves at a
// time. The gate belongs to the Pipeline instance, so independent
// pipelines never observe each other.
//
// [Sequence] is the consumer-facing adapter. Each [Sequence.Cursor]
// (or each range over [Sequence.All]) is one pass that retries on
// Preparing and ends on Finished. [Sequence.Follow] is the long-lived
// form: on Finished it waits for the next batch instead of ending.
package delivery
