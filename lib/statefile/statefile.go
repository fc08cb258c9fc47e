// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/parley/lib/clock"
	"github.com/bureau-foundation/parley/lib/codec"
)

// Snapshot is one observation of a running client.
type Snapshot struct {
	// Component identifies the writer, e.g. "parley".
	Component string `cbor:"component"`

	// Connection is the transport phase name ("online", "registering").
	Connection string `cbor:"connection"`

	// Session is the session state name ("online", "suspended").
	Session string `cbor:"session"`

	// Nick is the registered nick while online.
	Nick string `cbor:"nick,omitempty"`

	// Server is the endpoint the client talks to.
	Server string `cbor:"server"`

	// Error is the cause of the last failure transition, if any.
	Error string `cbor:"error,omitempty"`

	// Timestamp is when the snapshot was taken. Check compares it
	// against maxAge.
	Timestamp time.Time `cbor:"timestamp"`
}

// ErrStale is returned by Check when a snapshot exists but is older
// than the allowed age.
var ErrStale = errors.New("statefile: snapshot is stale")

// Write atomically replaces the snapshot at path. The file is created
// with mode 0600; the parent directory must already exist.
func Write(path string, snapshot Snapshot) error {
	data, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("statefile: encoding snapshot: %w", err)
	}

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("statefile: creating temporary file: %w", err)
	}

	// Write, sync, close, in that order. Any failure removes the
	// temporary file.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("statefile: writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("statefile: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("statefile: closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("statefile: renaming into place: %w", err)
	}

	// Make the rename durable.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}

// Read decodes the snapshot at path. A missing file yields an error
// wrapping os.ErrNotExist.
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("statefile: parsing %s: %w", path, err)
	}
	return snapshot, nil
}

// Check reads the snapshot at path and verifies it is no older than
// maxAge according to timeSource. It returns the snapshot together with
// ErrStale when it is too old, so callers can still show what was last
// known. A missing file returns an error wrapping os.ErrNotExist.
func Check(path string, maxAge time.Duration, timeSource clock.Clock) (Snapshot, error) {
	snapshot, err := Read(path)
	if err != nil {
		return Snapshot{}, err
	}
	if age := timeSource.Now().Sub(snapshot.Timestamp); age > maxAge {
		return snapshot, fmt.Errorf("%w: last written %s ago (limit %s)", ErrStale, age.Round(time.Second), maxAge)
	}
	return snapshot, nil
}

// Clear removes the snapshot. Returns nil when it does not exist.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("statefile: removing snapshot: %w", err)
	}
	return nil
}
