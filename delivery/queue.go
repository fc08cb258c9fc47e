// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delivery

// compactThreshold is the number of consumed slots tolerated at the
// front of the backing slice before Dequeue shifts the live items down.
const compactThreshold = 64

// Queue is an unbounded FIFO. It is not safe for concurrent use; the
// Pipeline serializes access to it.
type Queue[T any] struct {
	items []T
	head  int
}

// EnqueueBatch appends items in order.
func (queue *Queue[T]) EnqueueBatch(items []T) {
	queue.items = append(queue.items, items...)
}

// Dequeue removes and returns the oldest item. ok is false when the
// queue is empty.
func (queue *Queue[T]) Dequeue() (item T, ok bool) {
	if queue.head >= len(queue.items) {
		return item, false
	}
	item = queue.items[queue.head]
	var zero T
	queue.items[queue.head] = zero
	queue.head++

	switch {
	case queue.head == len(queue.items):
		queue.items = queue.items[:0]
		queue.head = 0
	case queue.head >= compactThreshold && queue.head*2 >= len(queue.items):
		live := copy(queue.items, queue.items[queue.head:])
		clear(queue.items[live:])
		queue.items = queue.items[:live]
		queue.head = 0
	}
	return item, true
}

// Len returns the number of queued items.
func (queue *Queue[T]) Len() int {
	return len(queue.items) - queue.head
}
