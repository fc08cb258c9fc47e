// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Transport kinds accepted in server.transport.
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// Config is the master configuration for parley.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	Server       ServerConfig       `yaml:"server"`
	Identity     IdentityConfig     `yaml:"identity"`
	Registration RegistrationConfig `yaml:"registration"`
	Reconnect    ReconnectConfig    `yaml:"reconnect"`
	Delivery     DeliveryConfig     `yaml:"delivery"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Status       StatusConfig       `yaml:"status"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the sections that can be overridden per
// environment.
type ConfigOverrides struct {
	Server    *ServerConfig    `yaml:"server,omitempty"`
	Reconnect *ReconnectConfig `yaml:"reconnect,omitempty"`
	Metrics   *MetricsConfig   `yaml:"metrics,omitempty"`
	Status    *StatusConfig    `yaml:"status,omitempty"`
}

// ServerConfig identifies the server and how to reach it.
type ServerConfig struct {
	// Network names this server in logs, metrics and conversation
	// targets. Default: the host.
	Network string `yaml:"network"`

	Host string `yaml:"host"`

	// Port defaults to 6667, or 6697 when TLS is set.
	Port int  `yaml:"port"`
	TLS  bool `yaml:"tls"`

	// Transport is "tcp" (default) or "websocket".
	Transport string `yaml:"transport"`

	// URL is the ws:// or wss:// address for the websocket transport.
	URL string `yaml:"url"`

	// DialTimeout bounds the TCP, TLS or WebSocket handshake.
	// Default: 10s
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// IdentityConfig is what the client registers as.
type IdentityConfig struct {
	Nick string `yaml:"nick"`

	// User defaults to Nick.
	User     string `yaml:"user"`
	RealName string `yaml:"real_name"`

	// Password is sent as PASS when set. Use ${VAR} to keep it out of
	// the file.
	Password string `yaml:"password"`
}

// RegistrationConfig bounds the registration handshake.
type RegistrationConfig struct {
	// Timeout is how long the server may take to accept or reject
	// the registration. Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ReconnectConfig controls reconnection after unexpected drops.
type ReconnectConfig struct {
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Default: 1s and 30s
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// DeliveryConfig controls how resolved conversations are consumed.
type DeliveryConfig struct {
	// Follow keeps draining as new batches arrive. When false each
	// drain is a single pass that ends when the queue is empty.
	// Default: true
	Follow bool `yaml:"follow"`

	// BatchWindow groups the conversations resolved from one burst of
	// traffic into a single batch. Default: 50ms
	BatchWindow time.Duration `yaml:"batch_window"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Address is the listen address for /metrics. Empty disables it.
	Address string `yaml:"address"`
}

// StatusConfig controls the status snapshot file.
type StatusConfig struct {
	// Path of the CBOR status file. Empty disables it.
	Path string `yaml:"path"`

	// MaxAge is how old a snapshot may be before status checks call
	// it stale. Default: 2m
	MaxAge time.Duration `yaml:"max_age"`
}

// Default returns the default configuration, used as the base before
// the config file is loaded. The file is still required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Transport:   TransportTCP,
			DialTimeout: 10 * time.Second,
		},
		Registration: RegistrationConfig{
			Timeout: 30 * time.Second,
		},
		Reconnect: ReconnectConfig{
			Enabled:        true,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Delivery: DeliveryConfig{
			Follow:      true,
			BatchWindow: 50 * time.Millisecond,
		},
		Status: StatusConfig{
			MaxAge: 2 * time.Minute,
		},
	}
}

// Load loads configuration from the PARLEY_CONFIG environment variable.
// There are no fallbacks: if PARLEY_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("PARLEY_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("PARLEY_CONFIG environment variable not set; " +
			"set it to the path of your parley.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	cfg.resolveDerived()

	return cfg, nil
}

// Parse decodes configuration from data as if it had been read from a
// file named name. Used for configs that arrive from somewhere other
// than the filesystem.
func Parse(name string, data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(name, data); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	cfg.resolveDerived()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	return c.decode(path, data)
}

func (c *Config) decode(name string, data []byte) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		// JSON is valid YAML once comments and trailing commas are gone.
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", name, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Server != nil {
		if overrides.Server.Network != "" {
			c.Server.Network = overrides.Server.Network
		}
		if overrides.Server.Host != "" {
			c.Server.Host = overrides.Server.Host
		}
		if overrides.Server.Port != 0 {
			c.Server.Port = overrides.Server.Port
		}
		// TLS is a bool, so an overriding server section always sets it.
		c.Server.TLS = overrides.Server.TLS
		if overrides.Server.Transport != "" {
			c.Server.Transport = overrides.Server.Transport
		}
		if overrides.Server.URL != "" {
			c.Server.URL = overrides.Server.URL
		}
		if overrides.Server.DialTimeout != 0 {
			c.Server.DialTimeout = overrides.Server.DialTimeout
		}
	}

	if overrides.Reconnect != nil {
		c.Reconnect.Enabled = overrides.Reconnect.Enabled
		if overrides.Reconnect.InitialBackoff != 0 {
			c.Reconnect.InitialBackoff = overrides.Reconnect.InitialBackoff
		}
		if overrides.Reconnect.MaxBackoff != 0 {
			c.Reconnect.MaxBackoff = overrides.Reconnect.MaxBackoff
		}
	}

	if overrides.Metrics != nil && overrides.Metrics.Address != "" {
		c.Metrics.Address = overrides.Metrics.Address
	}

	if overrides.Status != nil {
		if overrides.Status.Path != "" {
			c.Status.Path = overrides.Status.Path
		}
		if overrides.Status.MaxAge != 0 {
			c.Status.MaxAge = overrides.Status.MaxAge
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Server.Host = expandVars(c.Server.Host, vars)
	c.Server.URL = expandVars(c.Server.URL, vars)
	c.Identity.Password = expandVars(c.Identity.Password, vars)
	c.Metrics.Address = expandVars(c.Metrics.Address, vars)
	c.Status.Path = expandVars(c.Status.Path, vars)
}

// resolveDerived fills fields whose default depends on other fields.
func (c *Config) resolveDerived() {
	if c.Server.Port == 0 && c.Server.Transport != TransportWebSocket {
		c.Server.Port = 6667
		if c.Server.TLS {
			c.Server.Port = 6697
		}
	}
	if c.Server.Network == "" {
		c.Server.Network = c.Server.Host
	}
	if c.Identity.User == "" {
		c.Identity.User = c.Identity.Nick
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Identity.Nick == "" {
		errs = append(errs, errors.New("identity.nick is required"))
	} else if strings.ContainsAny(c.Identity.Nick, " \r\n,*?!@") || strings.HasPrefix(c.Identity.Nick, ":") {
		errs = append(errs, fmt.Errorf("identity.nick %q contains characters a server will reject", c.Identity.Nick))
	}

	switch c.Server.Transport {
	case TransportTCP:
		if c.Server.Host == "" {
			errs = append(errs, errors.New("server.host is required"))
		}
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
		}
	case TransportWebSocket:
		if c.Server.URL == "" {
			errs = append(errs, errors.New("server.url is required for the websocket transport"))
		} else if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
			errs = append(errs, fmt.Errorf("server.url %q must start with ws:// or wss://", c.Server.URL))
		}
	default:
		errs = append(errs, fmt.Errorf("server.transport must be one of: %v", []string{TransportTCP, TransportWebSocket}))
	}

	if c.Server.DialTimeout <= 0 {
		errs = append(errs, errors.New("server.dial_timeout must be positive"))
	}
	if c.Registration.Timeout <= 0 {
		errs = append(errs, errors.New("registration.timeout must be positive"))
	}
	if c.Reconnect.InitialBackoff <= 0 || c.Reconnect.MaxBackoff <= 0 {
		errs = append(errs, errors.New("reconnect backoffs must be positive"))
	} else if c.Reconnect.MaxBackoff < c.Reconnect.InitialBackoff {
		errs = append(errs, errors.New("reconnect.max_backoff must not be below reconnect.initial_backoff"))
	}
	if c.Delivery.BatchWindow < 0 {
		errs = append(errs, errors.New("delivery.batch_window must not be negative"))
	}
	if c.Status.Path != "" && c.Status.MaxAge <= 0 {
		errs = append(errs, errors.New("status.max_age must be positive when status.path is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
