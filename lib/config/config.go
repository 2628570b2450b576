// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for SwiftRide clients.
//
// Configuration is loaded from a single file specified by:
//   - SWIFTRIDE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery beyond the built-in
// defaults. The config file may contain environment-specific sections
// (development, staging, production) that override base values when
// the environment matches.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nkthecoder12/swiftride-fleet/realtime"
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

// Config is the master configuration for a SwiftRide client.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Backend configures the REST API client.
	Backend BackendConfig `yaml:"backend"`

	// Realtime configures the realtime channel.
	Realtime RealtimeConfig `yaml:"realtime"`

	// Session configures session persistence.
	Session SessionConfig `yaml:"session"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Backend  *BackendConfig  `yaml:"backend,omitempty"`
	Realtime *RealtimeConfig `yaml:"realtime,omitempty"`
	Session  *SessionConfig  `yaml:"session,omitempty"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "1m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// BackendConfig configures the REST API client.
type BackendConfig struct {
	// BaseURL is the API root, e.g. https://api.swiftride.example.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each HTTP request.
	// Default: 30s
	Timeout Duration `yaml:"timeout"`
}

// RealtimeConfig configures the realtime channel.
type RealtimeConfig struct {
	// URL is the websocket endpoint, e.g. wss://api.swiftride.example/ws.
	URL string `yaml:"url"`

	// Reconnect bounds the redial loop after a connection loss.
	// Defaults: 10 attempts, 1s initial delay, 5s ceiling.
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig mirrors realtime.ReconnectPolicy with
// YAML-friendly durations.
type ReconnectConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
}

// Policy converts the reconnect section into the realtime policy.
func (r ReconnectConfig) Policy() realtime.ReconnectPolicy {
	return realtime.ReconnectPolicy{
		MaxAttempts:  r.MaxAttempts,
		InitialDelay: r.InitialDelay.Std(),
		MaxDelay:     r.MaxDelay.Std(),
	}
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	// File is where the session record is stored.
	// Default: ${HOME}/.config/swiftride/session.json
	File string `yaml:"file"`
}

// Default returns the default configuration, used as a base before
// loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Environment: Development,
		Backend: BackendConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: Duration(30 * time.Second),
		},
		Realtime: RealtimeConfig{
			URL: "ws://localhost:3000/ws",
			Reconnect: ReconnectConfig{
				MaxAttempts:  10,
				InitialDelay: Duration(time.Second),
				MaxDelay:     Duration(5 * time.Second),
			},
		},
		Session: SessionConfig{
			File: filepath.Join(homeDir, ".config", "swiftride", "session.json"),
		},
	}
}

// Load loads configuration from the SWIFTRIDE_CONFIG environment
// variable. When it is unset, the built-in defaults are returned —
// the client is usable out of the box against a local backend.
func Load() (*Config, error) {
	configPath := os.Getenv("SWIFTRIDE_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override its values. The only expansion performed is ${HOME} and
// similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("config: backend.base_url is required")
	}
	if c.Realtime.URL == "" {
		return fmt.Errorf("config: realtime.url is required")
	}
	if c.Session.File == "" {
		return fmt.Errorf("config: session.file is required")
	}
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("config: unknown environment %q", c.Environment)
	}
	return nil
}

// applyEnvironmentOverrides applies the section matching
// c.Environment on top of the base values.
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

	if overrides.Backend != nil {
		if overrides.Backend.BaseURL != "" {
			c.Backend.BaseURL = overrides.Backend.BaseURL
		}
		if overrides.Backend.Timeout != 0 {
			c.Backend.Timeout = overrides.Backend.Timeout
		}
	}

	if overrides.Realtime != nil {
		if overrides.Realtime.URL != "" {
			c.Realtime.URL = overrides.Realtime.URL
		}
		if overrides.Realtime.Reconnect.MaxAttempts != 0 {
			c.Realtime.Reconnect.MaxAttempts = overrides.Realtime.Reconnect.MaxAttempts
		}
		if overrides.Realtime.Reconnect.InitialDelay != 0 {
			c.Realtime.Reconnect.InitialDelay = overrides.Realtime.Reconnect.InitialDelay
		}
		if overrides.Realtime.Reconnect.MaxDelay != 0 {
			c.Realtime.Reconnect.MaxDelay = overrides.Realtime.Reconnect.MaxDelay
		}
	}

	if overrides.Session != nil {
		if overrides.Session.File != "" {
			c.Session.File = overrides.Session.File
		}
	}
}

var variablePattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)

// expandVariables expands ${HOME}-style references in path fields.
func (c *Config) expandVariables() {
	c.Session.File = expandPath(c.Session.File)
}

func expandPath(path string) string {
	return variablePattern.ReplaceAllStringFunc(path, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}
