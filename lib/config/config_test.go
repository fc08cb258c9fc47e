// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Registration.Timeout != 30*time.Second {
		t.Errorf("expected registration timeout 30s, got %v", cfg.Registration.Timeout)
	}
	if !cfg.Reconnect.Enabled || cfg.Reconnect.InitialBackoff != time.Second || cfg.Reconnect.MaxBackoff != 30*time.Second {
		t.Errorf("unexpected reconnect defaults: %+v", cfg.Reconnect)
	}
	if cfg.Server.Transport != TransportTCP {
		t.Errorf("expected transport=tcp, got %s", cfg.Server.Transport)
	}
}

func TestLoad_RequiresParleyConfig(t *testing.T) {
	t.Setenv("PARLEY_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when PARLEY_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "PARLEY_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithParleyConfig(t *testing.T) {
	path := writeConfig(t, "parley.yaml", `
environment: staging
server:
  host: irc.example.net
identity:
  nick: parley
`)
	t.Setenv("PARLEY_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Server.Port != 6667 {
		t.Errorf("expected default port 6667, got %d", cfg.Server.Port)
	}
	if cfg.Identity.User != "parley" {
		t.Errorf("expected user to default to nick, got %q", cfg.Identity.User)
	}
	if cfg.Server.Network != "irc.example.net" {
		t.Errorf("expected network to default to host, got %q", cfg.Server.Network)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "parley.yaml", `
environment: development

server:
  network: example
  host: irc.example.net
  tls: true
  dial_timeout: 5s

identity:
  nick: parley
  user: bot
  real_name: Parley Bot

registration:
  timeout: 45s

reconnect:
  enabled: false
  initial_backoff: 2s
  max_backoff: 1m

delivery:
  follow: false
  batch_window: 0s

metrics:
  address: 127.0.0.1:9464

status:
  path: /run/parley/status.cbor
  max_age: 90s
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Server.Port != 6697 {
		t.Errorf("expected TLS default port 6697, got %d", cfg.Server.Port)
	}
	if cfg.Server.DialTimeout != 5*time.Second {
		t.Errorf("expected dial_timeout=5s, got %v", cfg.Server.DialTimeout)
	}
	if cfg.Identity.User != "bot" || cfg.Identity.RealName != "Parley Bot" {
		t.Errorf("unexpected identity: %+v", cfg.Identity)
	}
	if cfg.Registration.Timeout != 45*time.Second {
		t.Errorf("expected registration timeout 45s, got %v", cfg.Registration.Timeout)
	}
	if cfg.Reconnect.Enabled || cfg.Reconnect.MaxBackoff != time.Minute {
		t.Errorf("unexpected reconnect: %+v", cfg.Reconnect)
	}
	if cfg.Delivery.Follow || cfg.Delivery.BatchWindow != 0 {
		t.Errorf("unexpected delivery: %+v", cfg.Delivery)
	}
	if cfg.Status.MaxAge != 90*time.Second {
		t.Errorf("expected status max_age=90s, got %v", cfg.Status.MaxAge)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeConfig(t, "parley.jsonc", `{
  // Staging network over WebSocket.
  "environment": "staging",
  "server": {
    "transport": "websocket",
    "url": "wss://irc.example.net/webirc",
  },
  "identity": {"nick": "parley"},
  "registration": {"timeout": "10s"},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Server.Transport != TransportWebSocket || cfg.Server.URL != "wss://irc.example.net/webirc" {
		t.Errorf("unexpected server: %+v", cfg.Server)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("websocket transport should not get a default port, got %d", cfg.Server.Port)
	}
	if cfg.Registration.Timeout != 10*time.Second {
		t.Errorf("expected registration timeout 10s, got %v", cfg.Registration.Timeout)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "parley.yaml", "server: [unterminated")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "parley.yaml", `
environment: production
server:
  host: irc.dev.example.net
identity:
  nick: parley
production:
  server:
    host: irc.example.net
    tls: true
  reconnect:
    enabled: true
    max_backoff: 5m
  metrics:
    address: ":9464"
staging:
  server:
    host: irc.staging.example.net
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Server.Host != "irc.example.net" || !cfg.Server.TLS {
		t.Errorf("production server override not applied: %+v", cfg.Server)
	}
	if cfg.Server.Port != 6697 {
		t.Errorf("expected TLS port after override, got %d", cfg.Server.Port)
	}
	if cfg.Reconnect.MaxBackoff != 5*time.Minute || cfg.Reconnect.InitialBackoff != time.Second {
		t.Errorf("reconnect override not merged: %+v", cfg.Reconnect)
	}
	if cfg.Metrics.Address != ":9464" {
		t.Errorf("metrics override not applied: %q", cfg.Metrics.Address)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("PARLEY_TEST_PASSWORD", "s3cret")
	t.Setenv("HOME", "/home/parley")
	path := writeConfig(t, "parley.yaml", `
server:
  host: ${PARLEY_TEST_HOST:-irc.fallback.net}
identity:
  nick: parley
  password: ${PARLEY_TEST_PASSWORD}
status:
  path: ${HOME}/.cache/parley/status.cbor
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Server.Host != "irc.fallback.net" {
		t.Errorf("expected default host, got %q", cfg.Server.Host)
	}
	if cfg.Identity.Password != "s3cret" {
		t.Errorf("expected password from environment, got %q", cfg.Identity.Password)
	}
	if cfg.Status.Path != "/home/parley/.cache/parley/status.cbor" {
		t.Errorf("unexpected status path %q", cfg.Status.Path)
	}
}

func TestExpandVars(t *testing.T) {
	vars := map[string]string{"ROOT": "/srv"}
	tests := []struct {
		input string
		want  string
	}{
		{"${ROOT}/x", "/srv/x"},
		{"${PARLEY_TEST_UNSET_VAR:-dflt}", "dflt"},
		{"${PARLEY_TEST_UNSET_VAR}", ""},
		{"plain", "plain"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Server.Host = "irc.example.net"
		cfg.Server.Port = 6667
		cfg.Identity.Nick = "parley"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"missing nick", func(c *Config) { c.Identity.Nick = "" }, "identity.nick is required"},
		{"nick with space", func(c *Config) { c.Identity.Nick = "par ley" }, "identity.nick"},
		{"missing host", func(c *Config) { c.Server.Host = "" }, "server.host is required"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown transport", func(c *Config) { c.Server.Transport = "quic" }, "server.transport"},
		{"websocket without url", func(c *Config) { c.Server.Transport = TransportWebSocket }, "server.url is required"},
		{"websocket bad scheme", func(c *Config) {
			c.Server.Transport = TransportWebSocket
			c.Server.URL = "https://irc.example.net"
		}, "must start with ws://"},
		{"zero registration timeout", func(c *Config) { c.Registration.Timeout = 0 }, "registration.timeout"},
		{"inverted backoff", func(c *Config) { c.Reconnect.MaxBackoff = time.Millisecond }, "max_backoff"},
		{"status without max age", func(c *Config) {
			c.Status.Path = "/tmp/status"
			c.Status.MaxAge = 0
		}, "status.max_age"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			err := cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, test.wantErr)
			}
		})
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse("inline.json", []byte(`{"identity": {"nick": "parley"}, "server": {"host": "irc.example.net"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}
