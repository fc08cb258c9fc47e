// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/parley/delivery"
	"github.com/bureau-foundation/parley/ircmsg"
	"github.com/bureau-foundation/parley/lib/clock"
)

// BatcherConfig configures a Batcher.
type BatcherConfig struct {
	Resolver *Resolver
	Pipeline *delivery.Pipeline[Target]

	// Window is how long the first target of a burst waits for
	// company before the batch is enqueued. Zero enqueues every
	// target on its own.
	Window time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Batcher accumulates resolved targets and enqueues them as one batch
// per window. Handle is shaped to be a transport.ClientConfig.OnMessage
// hook.
type Batcher struct {
	resolver *Resolver
	pipeline *delivery.Pipeline[Target]
	window   time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	mutex   sync.Mutex
	pending []Target
	timer   *clock.Timer

	// generation increments on every flush. A window callback armed
	// under an older generation does nothing.
	generation uint64
}

// NewBatcher returns a Batcher feeding config.Pipeline.
func NewBatcher(config BatcherConfig) *Batcher {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Batcher{
		resolver: config.Resolver,
		pipeline: config.Pipeline,
		window:   config.Window,
		clock:    config.Clock,
		logger:   config.Logger,
	}
}

// Handle resolves message and queues its target, if any.
func (batcher *Batcher) Handle(message ircmsg.Message) {
	target, ok := batcher.resolver.ResolveOne(message)
	if !ok {
		return
	}

	batcher.mutex.Lock()
	defer batcher.mutex.Unlock()

	batcher.pending = append(batcher.pending, target)
	if batcher.window <= 0 {
		batcher.flushLocked()
		return
	}
	if batcher.timer == nil {
		generation := batcher.generation
		batcher.timer = batcher.clock.AfterFunc(batcher.window, func() {
			batcher.windowExpired(generation)
		})
	}
}

// windowExpired flushes the window armed under generation. A callback
// that fired while an explicit Flush held the lock finds the
// generation moved on and leaves the next burst alone.
func (batcher *Batcher) windowExpired(generation uint64) {
	batcher.mutex.Lock()
	defer batcher.mutex.Unlock()
	if generation != batcher.generation {
		return
	}
	batcher.flushLocked()
}

// Flush enqueues whatever is pending now.
func (batcher *Batcher) Flush() {
	batcher.mutex.Lock()
	defer batcher.mutex.Unlock()
	batcher.flushLocked()
}

// flushLocked enqueues under the lock so batches keep their order.
func (batcher *Batcher) flushLocked() {
	batcher.timer.Stop()
	batcher.timer = nil
	batcher.generation++
	if len(batcher.pending) == 0 {
		return
	}
	batch := batcher.pending
	batcher.pending = nil
	batcher.pipeline.EnqueueBatch(batch)
	batcher.logger.Debug("conversation batch enqueued", "targets", len(batch))
}

// Close flushes pending targets and stops the window timer.
func (batcher *Batcher) Close() {
	batcher.Flush()
}
