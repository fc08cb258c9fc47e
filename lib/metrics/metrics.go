// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus collectors for the connection
// lifecycle and the conversation delivery pipeline.
//
// Collectors are package variables so any package can record without
// plumbing a registry through constructors. Nothing is exported until
// [Register] is called, normally once from main before serving
// /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Transitions counts committed state transitions per machine.
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_transitions_total",
		Help: "Committed state machine transitions.",
	}, []string{"machine", "from", "to"})

	// ConnectionState is 1 for each transport machine's current phase
	// and 0 for its other phases.
	ConnectionState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parley_connection_state",
		Help: "Current transport connection phase per machine (1 = active).",
	}, []string{"machine", "phase"})

	// Registrations counts how registration attempts ended.
	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_registrations_total",
		Help: "Registration attempts by outcome (success, rejected, timeout).",
	}, []string{"outcome"})

	// Reconnects counts reconnect attempts made by the client run loop.
	Reconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_reconnects_total",
		Help: "Reconnect attempts after an unexpected disconnect.",
	})

	// DeliveryEnqueued counts conversation targets accepted by EnqueueBatch.
	DeliveryEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_delivery_enqueued_total",
		Help: "Conversation targets appended to the delivery queue.",
	})

	// DeliveryPulls counts pull results (ready, preparing, finished).
	DeliveryPulls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_delivery_pulls_total",
		Help: "Delivery pipeline pull results.",
	}, []string{"result"})
)

// Register adds every collector to registerer. It panics on duplicate
// registration, like prometheus.MustRegister.
func Register(registerer prometheus.Registerer) {
	registerer.MustRegister(
		Transitions,
		ConnectionState,
		Registrations,
		Reconnects,
		DeliveryEnqueued,
		DeliveryPulls,
	)
}
