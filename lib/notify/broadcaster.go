// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import "sync"

// Broadcaster delivers every published value to every live
// subscription. The zero value is ready to use.
type Broadcaster[T any] struct {
	mutex         sync.Mutex
	subscriptions map[*Subscription[T]]struct{}
	closed        bool
}

// Subscribe registers a new observer. Values published before the call
// are not replayed. Call Close on the subscription to release its
// goroutine.
func (broadcaster *Broadcaster[T]) Subscribe() *Subscription[T] {
	subscription := &Subscription[T]{
		owner:  broadcaster,
		output: make(chan T),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	broadcaster.mutex.Lock()
	if broadcaster.closed {
		broadcaster.mutex.Unlock()
		subscription.stop()
		close(subscription.output)
		return subscription
	}
	if broadcaster.subscriptions == nil {
		broadcaster.subscriptions = make(map[*Subscription[T]]struct{})
	}
	broadcaster.subscriptions[subscription] = struct{}{}
	broadcaster.mutex.Unlock()

	go subscription.pump()
	return subscription
}

// Publish queues value for every subscription and returns without
// waiting for any observer.
func (broadcaster *Broadcaster[T]) Publish(value T) {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	for subscription := range broadcaster.subscriptions {
		subscription.enqueue(value)
	}
}

// Len returns the number of live subscriptions.
func (broadcaster *Broadcaster[T]) Len() int {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	return len(broadcaster.subscriptions)
}

// Close ends every subscription. Pending values that have not reached
// an observer are discarded and each subscription channel is closed.
// Subscribe after Close returns an already-closed subscription.
func (broadcaster *Broadcaster[T]) Close() {
	broadcaster.mutex.Lock()
	subscriptions := broadcaster.subscriptions
	broadcaster.subscriptions = nil
	broadcaster.closed = true
	broadcaster.mutex.Unlock()

	for subscription := range subscriptions {
		subscription.stop()
	}
}

func (broadcaster *Broadcaster[T]) remove(subscription *Subscription[T]) {
	broadcaster.mutex.Lock()
	delete(broadcaster.subscriptions, subscription)
	broadcaster.mutex.Unlock()
}

// Subscription is one observer's ordered view of a Broadcaster.
type Subscription[T any] struct {
	owner  *Broadcaster[T]
	output chan T
	wake   chan struct{}
	done   chan struct{}

	mutex    sync.Mutex
	pending  []T
	stopOnce sync.Once
}

// C returns the channel values arrive on. It is closed after Close.
func (subscription *Subscription[T]) C() <-chan T {
	return subscription.output
}

// Close detaches the subscription. Safe to call more than once.
func (subscription *Subscription[T]) Close() {
	subscription.owner.remove(subscription)
	subscription.stop()
}

func (subscription *Subscription[T]) stop() {
	subscription.stopOnce.Do(func() { close(subscription.done) })
}

func (subscription *Subscription[T]) enqueue(value T) {
	subscription.mutex.Lock()
	subscription.pending = append(subscription.pending, value)
	subscription.mutex.Unlock()

	select {
	case subscription.wake <- struct{}{}:
	default:
	}
}

func (subscription *Subscription[T]) pump() {
	defer close(subscription.output)
	for {
		subscription.mutex.Lock()
		if len(subscription.pending) == 0 {
			subscription.mutex.Unlock()
			select {
			case <-subscription.wake:
				continue
			case <-subscription.done:
				return
			}
		}
		value := subscription.pending[0]
		var zero T
		subscription.pending[0] = zero
		subscription.pending = subscription.pending[1:]
		subscription.mutex.Unlock()

		select {
		case subscription.output <- value:
		case <-subscription.done:
			return
		}
	}
}
