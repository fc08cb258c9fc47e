// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"time"

	"github.com/bureau-foundation/parley/lib/metrics"
)

// ReconnectPolicy controls Run's retry loop.
type ReconnectPolicy struct {
	// Enabled turns on reconnecting after an unexpected drop. When
	// false Run returns the first failure.
	Enabled bool

	// InitialBackoff is the first delay, doubled after each failed
	// attempt up to MaxBackoff. Reset once a connection reaches
	// Online. Defaults to 1s and 30s.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// QuitTimeout bounds the QUIT handshake when Run's context ends.
	// Defaults to 5s.
	QuitTimeout time.Duration
}

func (policy ReconnectPolicy) withDefaults() ReconnectPolicy {
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = time.Second
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = 30 * time.Second
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if policy.QuitTimeout <= 0 {
		policy.QuitTimeout = 5 * time.Second
	}
	return policy
}

// Run keeps the client connected until ctx ends or Disconnect is
// called. Each connection is driven to Offline before the next
// attempt; with reconnecting enabled, failures are retried with
// exponential backoff on the client's clock. When ctx ends while
// connected Run sends QUIT and waits up to QuitTimeout.
//
// Run returns nil on ctx cancellation or Disconnect, and the failure
// cause when reconnecting is disabled.
func (c *Client) Run(ctx context.Context) error {
	c.mutex.Lock()
	c.stopped = false
	c.mutex.Unlock()

	policy := c.config.Reconnect
	backoff := policy.InitialBackoff
	for {
		reachedOnline, err := c.runOnce(ctx)
		if errors.Is(err, ErrBusy) {
			return err
		}
		if ctx.Err() != nil {
			c.shutdown()
			return nil
		}
		if c.isStopped() {
			return nil
		}
		if !policy.Enabled {
			return err
		}

		if reachedOnline {
			backoff = policy.InitialBackoff
		}
		c.logger.Warn("connection lost, reconnecting", "delay", backoff, "error", err)
		metrics.Reconnects.Inc()

		select {
		case <-ctx.Done():
			return nil
		case <-c.clock.After(backoff):
		}
		if c.isStopped() {
			return nil
		}
		backoff = min(backoff*2, policy.MaxBackoff)
	}
}

// runOnce connects and blocks until the connection is Offline again
// or ctx ends. It reports whether Online was reached and the cause of
// the drop.
func (c *Client) runOnce(ctx context.Context) (bool, error) {
	subscription := c.machine.Subscribe()
	defer subscription.Close()

	if err := c.Connect(ctx); err != nil {
		return false, err
	}

	reachedOnline := false
	for {
		select {
		case change, ok := <-subscription.C():
			if !ok {
				return reachedOnline, ErrNotOnline
			}
			switch change.To.Phase() {
			case PhaseOnline:
				reachedOnline = true
			case PhaseOffline:
				return reachedOnline, change.Err
			}
		case <-ctx.Done():
			return reachedOnline, ctx.Err()
		}
	}
}

func (c *Client) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Reconnect.QuitTimeout)
	defer cancel()
	if err := c.Disconnect(ctx, "shutting down"); err != nil {
		c.logger.Warn("disconnect on shutdown did not complete", "error", err)
	}
}

func (c *Client) isStopped() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stopped
}
