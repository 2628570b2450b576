// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swiftride.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Environment != Development {
		t.Errorf("environment = %q, want development", cfg.Environment)
	}
	if cfg.Backend.Timeout.Std() != 30*time.Second {
		t.Errorf("backend timeout = %v, want 30s", cfg.Backend.Timeout)
	}
	if cfg.Realtime.Reconnect.MaxAttempts != 10 {
		t.Errorf("reconnect attempts = %d, want 10", cfg.Realtime.Reconnect.MaxAttempts)
	}
	if cfg.Realtime.Reconnect.MaxDelay.Std() != 5*time.Second {
		t.Errorf("reconnect ceiling = %v, want 5s", cfg.Realtime.Reconnect.MaxDelay)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: https://api.swiftride.example
realtime:
  url: wss://api.swiftride.example/ws
  reconnect:
    max_attempts: 3
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.swiftride.example" {
		t.Errorf("base_url = %q", cfg.Backend.BaseURL)
	}
	// Unspecified fields keep their defaults.
	if cfg.Backend.Timeout.Std() != 30*time.Second {
		t.Errorf("timeout = %v, want default 30s", cfg.Backend.Timeout)
	}
	if cfg.Realtime.Reconnect.MaxAttempts != 3 {
		t.Errorf("max_attempts = %d, want 3", cfg.Realtime.Reconnect.MaxAttempts)
	}
	if cfg.Realtime.Reconnect.InitialDelay.Std() != time.Second {
		t.Errorf("initial_delay = %v, want default 1s", cfg.Realtime.Reconnect.InitialDelay)
	}
}

func TestEnvironmentOverridesApply(t *testing.T) {
	path := writeConfig(t, `
environment: production
backend:
  base_url: https://api.swiftride.example
production:
  backend:
    base_url: https://api.prod.swiftride.example
    timeout: 10s
  realtime:
    url: wss://rt.prod.swiftride.example/ws
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.prod.swiftride.example" {
		t.Errorf("base_url = %q, want production override", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout.Std() != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Backend.Timeout)
	}
	if cfg.Realtime.URL != "wss://rt.prod.swiftride.example/ws" {
		t.Errorf("realtime url = %q", cfg.Realtime.URL)
	}
}

func TestOverridesForOtherEnvironmentsIgnored(t *testing.T) {
	path := writeConfig(t, `
environment: development
staging:
  backend:
    base_url: https://api.staging.swiftride.example
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:3000/api" {
		t.Errorf("base_url = %q, staging override leaked", cfg.Backend.BaseURL)
	}
}

func TestHomeExpansionInSessionFile(t *testing.T) {
	t.Setenv("HOME", "/home/rider")
	path := writeConfig(t, `
session:
  file: ${HOME}/.swiftride/session.json
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Session.File != "/home/rider/.swiftride/session.json" {
		t.Errorf("session file = %q", cfg.Session.File)
	}
}

func TestRejectsUnknownEnvironment(t *testing.T) {
	path := writeConfig(t, `
environment: qa
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestLoadWithoutEnvVarFallsBackToDefaults(t *testing.T) {
	t.Setenv("SWIFTRIDE_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.BaseURL == "" {
		t.Error("defaults missing backend base URL")
	}
}
