// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/parley/lib/clock"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Component:  "parley",
		Connection: "online",
		Session:    "online",
		Nick:       "parley_",
		Server:     "irc.example.net:6697 (tls)",
		Timestamp:  testEpoch,
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	snapshot := sampleSnapshot()

	if err := Write(path, snapshot); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Component != snapshot.Component || got.Connection != snapshot.Connection ||
		got.Session != snapshot.Session || got.Nick != snapshot.Nick || got.Server != snapshot.Server {
		t.Errorf("Read = %+v, want %+v", got, snapshot)
	}
	if !got.Timestamp.Equal(snapshot.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, snapshot.Timestamp)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	first := sampleSnapshot()
	if err := Write(path, first); err != nil {
		t.Fatalf("Write first: %v", err)
	}

	second := sampleSnapshot()
	second.Connection = "offline"
	second.Nick = ""
	second.Error = "transport: registration timed out"
	if err := Write(path, second); err != nil {
		t.Fatalf("Write second: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Connection != "offline" || got.Nick != "" || got.Error != second.Error {
		t.Errorf("Read = %+v, want the second snapshot", got)
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "status.cbor")
	if err := Write(path, sampleSnapshot()); err == nil {
		t.Fatal("Write into a missing directory succeeded")
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "status.cbor"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read = %v, want os.ErrNotExist", err)
	}
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	if err := os.WriteFile(path, []byte{0xff, 0xfe}, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Read(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read = %v, want a parse error", err)
	}
}

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	if err := Write(path, sampleSnapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	fake := clock.Fake(testEpoch.Add(30 * time.Second))
	snapshot, err := Check(path, time.Minute, fake)
	if err != nil {
		t.Fatalf("Check fresh: %v", err)
	}
	if snapshot.Connection != "online" {
		t.Errorf("Connection = %q", snapshot.Connection)
	}

	fake.Advance(time.Minute)
	snapshot, err = Check(path, time.Minute, fake)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("Check after 90s = %v, want ErrStale", err)
	}
	if snapshot.Nick != "parley_" {
		t.Errorf("stale Check should still return the snapshot, got %+v", snapshot)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	if err := Write(path, sampleSnapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, err := Read(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read after Clear = %v, want os.ErrNotExist", err)
	}
}
