// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureau-foundation/parley/conversation"
	"github.com/bureau-foundation/parley/delivery"
	"github.com/bureau-foundation/parley/lib/clock"
	"github.com/bureau-foundation/parley/lib/config"
	"github.com/bureau-foundation/parley/lib/metrics"
	"github.com/bureau-foundation/parley/lib/statefile"
	"github.com/bureau-foundation/parley/session"
	"github.com/bureau-foundation/parley/transport"
)

// appOptions replaces pieces of the runtime. Zero values select the
// production implementation.
type appOptions struct {
	Dialer transport.Dialer
	Clock  clock.Clock
	Logger *slog.Logger

	// OnConversation is called for every target drained from the
	// pipeline, after it is logged.
	OnConversation func(conversation.Target)
}

// app wires the transport client, the conversation pipeline, the
// session tracker, the status file and the metrics endpoint together.
type app struct {
	config *config.Config
	clock  clock.Clock
	logger *slog.Logger

	client   *transport.Client
	pipeline *delivery.Pipeline[conversation.Target]
	sequence *delivery.Sequence[conversation.Target]
	batcher  *conversation.Batcher
	tracker  *session.Tracker
	registry *prometheus.Registry

	onConversation func(conversation.Target)
}

func newApp(cfg *config.Config, options appOptions) (*app, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeSource := options.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}

	dialer, endpoint, err := newDialer(cfg.Server)
	if err != nil {
		return nil, err
	}
	if options.Dialer != nil {
		dialer = options.Dialer
	}

	a := &app{
		config:         cfg,
		clock:          timeSource,
		logger:         logger,
		registry:       prometheus.NewRegistry(),
		onConversation: options.OnConversation,
	}
	metrics.Register(a.registry)

	a.pipeline = delivery.NewPipeline[conversation.Target](delivery.PipelineConfig{
		Name:   "conversations",
		Logger: logger,
	})
	a.sequence = delivery.NewSequence(a.pipeline)
	a.batcher = conversation.NewBatcher(conversation.BatcherConfig{
		Resolver: &conversation.Resolver{
			Network: cfg.Server.Network,
			Self:    a.nick,
		},
		Pipeline: a.pipeline,
		Window:   cfg.Delivery.BatchWindow,
		Clock:    timeSource,
		Logger:   logger,
	})

	a.client, err = transport.NewClient(transport.ClientConfig{
		Name:     cfg.Server.Network,
		Endpoint: endpoint,
		Dialer:   dialer,
		Nick:     transport.Nickname(cfg.Identity.Nick),
		User: transport.UserInfo{
			Username: cfg.Identity.User,
			RealName: cfg.Identity.RealName,
		},
		Password:            cfg.Identity.Password,
		RegistrationTimeout: cfg.Registration.Timeout,
		Reconnect: transport.ReconnectPolicy{
			Enabled:        cfg.Reconnect.Enabled,
			InitialBackoff: cfg.Reconnect.InitialBackoff,
			MaxBackoff:     cfg.Reconnect.MaxBackoff,
		},
		OnMessage: a.batcher.Handle,
		Clock:     timeSource,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	a.tracker = session.NewTracker(session.NewMachine(session.MachineConfig{
		Logger: logger,
		Clock:  timeSource,
	}))
	return a, nil
}

// newDialer selects the dialer and endpoint for the configured
// transport.
func newDialer(server config.ServerConfig) (transport.Dialer, transport.Endpoint, error) {
	switch server.Transport {
	case config.TransportWebSocket:
		endpoint := transport.Endpoint{Host: server.Host, Port: server.Port, TLS: server.TLS}
		if server.URL != "" {
			parsed, err := transport.ParseWebSocketEndpoint(server.URL)
			if err != nil {
				return nil, transport.Endpoint{}, err
			}
			endpoint = parsed
		}
		return &transport.WebSocketDialer{HandshakeTimeout: server.DialTimeout}, endpoint, nil
	case config.TransportTCP, "":
		endpoint := transport.Endpoint{Host: server.Host, Port: server.Port, TLS: server.TLS}
		return &transport.TCPDialer{Timeout: server.DialTimeout}, endpoint, nil
	default:
		return nil, transport.Endpoint{}, fmt.Errorf("unknown transport %q", server.Transport)
	}
}

// nick is the nick the server accepted, or the configured one before
// registration completes.
func (a *app) nick() string {
	if nick := stateNick(a.client.State()); nick != "" {
		return nick
	}
	return a.config.Identity.Nick
}

func stateNick(state transport.State) string {
	switch state := state.(type) {
	case transport.Online:
		return string(state.Nick)
	case transport.Registering:
		return string(state.Nick)
	}
	return ""
}

// run drives the client until ctx ends or the client gives up, then
// stops the supporting goroutines and writes a final status snapshot.
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metricsServer *http.Server
	if a.config.Metrics.Address != "" {
		listener, err := net.Listen("tcp", a.config.Metrics.Address)
		if err != nil {
			return fmt.Errorf("listening for metrics on %s: %w", a.config.Metrics.Address, err)
		}
		metricsServer = a.newMetricsServer()
		go func() {
			if err := metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		a.logger.Info("serving metrics", "address", listener.Addr().String())
	}

	// Subscribe before Run so no transition is missed.
	transportChanges := a.client.Machine().Subscribe()
	defer transportChanges.Close()

	var waitGroup sync.WaitGroup
	waitGroup.Add(2)
	go func() {
		defer waitGroup.Done()
		a.tracker.Follow(ctx, transportChanges.C())
	}()
	go func() {
		defer waitGroup.Done()
		a.drain(ctx)
	}()

	if a.config.Status.Path != "" {
		statusTransport := a.client.Machine().Subscribe()
		statusSession := a.tracker.Machine().Subscribe()
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			defer statusTransport.Close()
			defer statusSession.Close()
			a.writeStatus(ctx, statusTransport.C(), statusSession.C())
		}()
	}

	err := a.client.Run(ctx)

	cancel()
	waitGroup.Wait()
	a.batcher.Close()

	// The follower may have stopped before seeing the last change.
	a.tracker.Observe(transport.Change{To: a.client.State(), At: a.clock.Now()})

	if metricsServer != nil {
		shutdownContext, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := metricsServer.Shutdown(shutdownContext); shutdownErr != nil {
			a.logger.Warn("metrics server shutdown", "error", shutdownErr)
		}
	}
	if a.config.Status.Path != "" {
		a.snapshot()
	}
	return err
}

func (a *app) newMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if a.client.State().Phase() != transport.PhaseOnline {
			http.Error(w, a.client.State().String(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, a.client.State().String())
	})
	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// drain consumes resolved conversations. With delivery.follow it stays
// on one long-lived iterator; otherwise each wakeup runs a single pass
// that ends at the first Finished.
func (a *app) drain(ctx context.Context) {
	if a.config.Delivery.Follow {
		for target := range a.sequence.Follow(ctx) {
			a.deliver(target)
		}
		return
	}
	for {
		for target := range a.sequence.All() {
			a.deliver(target)
		}
		select {
		case <-a.pipeline.Notify():
		case <-ctx.Done():
			return
		}
	}
}

func (a *app) deliver(target conversation.Target) {
	a.logger.Info("conversation ready",
		"kind", target.Kind.String(),
		"target", target.Name,
		"network", target.Network,
		"envelope_bytes", len(target.Envelope),
	)
	if a.onConversation != nil {
		a.onConversation(target)
	}
}

// writeStatus rewrites the status file on every transport or session
// change, and at half the configured max age so a healthy process
// never looks stale.
func (a *app) writeStatus(ctx context.Context, transportChanges <-chan transport.Change, sessionChanges <-chan session.Change) {
	interval := a.config.Status.MaxAge / 2
	if interval <= 0 {
		interval = time.Minute
	}

	a.snapshot()
	heartbeat := a.clock.After(interval)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-transportChanges:
			if !ok {
				return
			}
		case _, ok := <-sessionChanges:
			if !ok {
				return
			}
		case <-heartbeat:
			heartbeat = a.clock.After(interval)
		}
		a.snapshot()
	}
}

func (a *app) snapshot() {
	state := a.client.State()
	snapshot := statefile.Snapshot{
		Component:  "parley",
		Connection: state.Phase().String(),
		Session:    a.tracker.Machine().State().String(),
		Nick:       stateNick(state),
		Server:     a.config.Server.Network,
		Timestamp:  a.clock.Now(),
	}
	if state.Phase() == transport.PhaseOffline {
		if err := a.client.LastError(); err != nil {
			snapshot.Error = err.Error()
		}
	}
	if err := statefile.Write(a.config.Status.Path, snapshot); err != nil {
		a.logger.Warn("writing status file", "path", a.config.Status.Path, "error", err)
	}
}
