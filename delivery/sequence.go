// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delivery

import (
	"context"
	"iter"
	"runtime"
)

// Sequence is the consumer view of a Pipeline. It buffers nothing.
type Sequence[T any] struct {
	pipeline *Pipeline[T]
}

// NewSequence wraps pipeline.
func NewSequence[T any](pipeline *Pipeline[T]) *Sequence[T] {
	return &Sequence[T]{pipeline: pipeline}
}

// Cursor starts a new pass over the pipeline.
func (sequence *Sequence[T]) Cursor() *Cursor[T] {
	return &Cursor[T]{pipeline: sequence.pipeline}
}

// All returns a single-pass iterator: ranging over it drains what is
// queued and stops at the first Finished. Ranging again starts a new
// pass and picks up items enqueued since.
func (sequence *Sequence[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		cursor := sequence.Cursor()
		for {
			item, ok := cursor.Next()
			if !ok || !yield(item) {
				return
			}
		}
	}
}

// Follow returns a long-lived iterator. On Finished it waits for the
// next EnqueueBatch instead of ending, and stops only when ctx is done
// or the loop body breaks.
func (sequence *Sequence[T]) Follow(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			for item := range sequence.All() {
				if !yield(item) {
					return
				}
				if ctx.Err() != nil {
					return
				}
			}
			select {
			case <-sequence.pipeline.Notify():
			case <-ctx.Done():
				return
			}
		}
	}
}

// Cursor is one pass over a Pipeline. It is not safe for concurrent
// use; two consumers take two cursors and the pipeline gate arbitrates.
type Cursor[T any] struct {
	pipeline *Pipeline[T]
	ended    bool
}

// Next pulls until it gets an item or the pass ends. Preparing is
// retried after yielding the processor; Finished ends the pass, and
// every later call returns false.
func (cursor *Cursor[T]) Next() (T, bool) {
	var zero T
	if cursor.ended {
		return zero, false
	}
	for {
		item, status := cursor.pipeline.Pull()
		switch status {
		case Ready:
			return item, true
		case Preparing:
			runtime.Gosched()
		default:
			cursor.ended = true
			return zero, false
		}
	}
}
