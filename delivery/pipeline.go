// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delivery

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/parley/lib/metrics"
)

// Status is the outcome of a Pull.
type Status uint8

const (
	// Ready means Pull returned the next item.
	Ready Status = iota
	// Preparing means another pull is in flight; retry.
	Preparing
	// Finished means the queue is currently empty.
	Finished
)

func (status Status) String() string {
	switch status {
	case Ready:
		return "ready"
	case Preparing:
		return "preparing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Gate is the consumption handshake between the pipeline and its
// consumer.
type Gate uint32

const (
	// GateConsumed: no pull is in flight.
	GateConsumed Gate = iota
	// GateWaiting: a pull is resolving.
	GateWaiting
)

func (gate Gate) String() string {
	if gate == GateWaiting {
		return "waiting"
	}
	return "consumed"
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Name labels log lines. Optional.
	Name string

	// Logger receives debug lines for batches. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Pipeline is a single-consumer delivery queue. EnqueueBatch and Pull
// may be called from different goroutines.
type Pipeline[T any] struct {
	name   string
	logger *slog.Logger

	gate atomic.Uint32

	mutex sync.Mutex
	queue Queue[T]

	// notify holds at most one pending "items arrived" signal.
	notify chan struct{}

	// resolving runs between taking the gate and dequeuing. Tests use
	// it to hold a pull in flight.
	resolving func()
}

// NewPipeline returns an empty pipeline with the gate Consumed.
func NewPipeline[T any](config PipelineConfig) *Pipeline[T] {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline[T]{
		name:   config.Name,
		logger: logger,
		notify: make(chan struct{}, 1),
	}
}

// EnqueueBatch appends items to the queue in order. It never blocks on
// the consumer and is safe while a pull is in flight. An empty batch is
// a no-op.
func (pipeline *Pipeline[T]) EnqueueBatch(items []T) {
	if len(items) == 0 {
		return
	}

	pipeline.mutex.Lock()
	pipeline.queue.EnqueueBatch(items)
	depth := pipeline.queue.Len()
	pipeline.mutex.Unlock()

	metrics.DeliveryEnqueued.Add(float64(len(items)))
	pipeline.logger.Debug("conversation batch enqueued",
		"pipeline", pipeline.name,
		"count", len(items),
		"depth", depth,
	)

	select {
	case pipeline.notify <- struct{}{}:
	default:
	}
}

// Pull returns the next item, or reports why it cannot.
//
// With the gate Consumed, Pull moves it to Waiting, dequeues, and moves
// it back to Consumed before returning Ready or Finished. With the gate
// already Waiting it returns Preparing without touching the queue.
func (pipeline *Pipeline[T]) Pull() (T, Status) {
	var zero T
	if !pipeline.gate.CompareAndSwap(uint32(GateConsumed), uint32(GateWaiting)) {
		metrics.DeliveryPulls.WithLabelValues(Preparing.String()).Inc()
		return zero, Preparing
	}
	defer pipeline.gate.Store(uint32(GateConsumed))

	if pipeline.resolving != nil {
		pipeline.resolving()
	}

	pipeline.mutex.Lock()
	item, ok := pipeline.queue.Dequeue()
	pipeline.mutex.Unlock()

	if !ok {
		metrics.DeliveryPulls.WithLabelValues(Finished.String()).Inc()
		return zero, Finished
	}
	metrics.DeliveryPulls.WithLabelValues(Ready.String()).Inc()
	return item, Ready
}

// Gate returns the current gate value.
func (pipeline *Pipeline[T]) Gate() Gate {
	return Gate(pipeline.gate.Load())
}

// Len returns the number of queued items.
func (pipeline *Pipeline[T]) Len() int {
	pipeline.mutex.Lock()
	defer pipeline.mutex.Unlock()
	return pipeline.queue.Len()
}

// Notify returns a channel that becomes readable after EnqueueBatch
// adds items. Signals coalesce: several batches may produce a single
// wakeup, and a wakeup may find the queue already drained.
func (pipeline *Pipeline[T]) Notify() <-chan struct{} {
	return pipeline.notify
}
