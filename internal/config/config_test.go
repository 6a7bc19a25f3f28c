// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Remote.RetryBudget != 3 {
		t.Errorf("default retry budget = %d", cfg.Remote.RetryBudget)
	}
	if cfg.Session.CooldownSecs != 120 {
		t.Errorf("default cooldown = %d", cfg.Session.CooldownSecs)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[remote]
endpoint = "https://api.example.com/v1/generate"
token = "tok-abc"
retry_budget = 5

[session]
cooldown_secs = 60

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Remote.Endpoint != "https://api.example.com/v1/generate" {
		t.Errorf("endpoint = %q", cfg.Remote.Endpoint)
	}
	if cfg.Remote.RetryBudget != 5 {
		t.Errorf("retry_budget = %d", cfg.Remote.RetryBudget)
	}
	if cfg.Session.CooldownSecs != 60 {
		t.Errorf("cooldown_secs = %d", cfg.Session.CooldownSecs)
	}
	// Unset fields keep defaults.
	if cfg.Remote.TimeoutSecs != 180 {
		t.Errorf("timeout_secs = %d, expected default 180", cfg.Remote.TimeoutSecs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFromPathInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[remote]
endpoint = "not a url"
retry_budget = 99
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MENTOR_ENDPOINT", "https://override.example.com/generate")
	t.Setenv("MENTOR_TOKEN", "tok-env")
	t.Setenv("MENTOR_COOLDOWN_SECS", "30")
	t.Setenv("MENTOR_NO_ARCHIVE", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Remote.Endpoint != "https://override.example.com/generate" {
		t.Errorf("endpoint = %q", cfg.Remote.Endpoint)
	}
	if cfg.Remote.Token != "tok-env" {
		t.Errorf("token = %q", cfg.Remote.Token)
	}
	if cfg.Session.CooldownSecs != 30 {
		t.Errorf("cooldown_secs = %d", cfg.Session.CooldownSecs)
	}
	if cfg.Storage.Enabled {
		t.Error("MENTOR_NO_ARCHIVE=1 should disable storage")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Remote.Endpoint = "https://api.example.com/generate"
	cfg.Remote.Token = "tok-save"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, expected 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Remote.Endpoint != cfg.Remote.Endpoint {
		t.Errorf("endpoint = %q after round trip", loaded.Remote.Endpoint)
	}
	if loaded.Remote.Token != "tok-save" {
		t.Error("token lost in round trip")
	}
}

func TestStringRedactsToken(t *testing.T) {
	cfg := Default()
	cfg.Remote.Token = "super-secret-token"

	s := cfg.String()
	if strings.Contains(s, "super-secret-token") {
		t.Error("String() leaked the API token")
	}
	if !strings.Contains(s, "REDACTED") {
		t.Error("String() should mark the token redacted")
	}
}

func TestValidationMessages(t *testing.T) {
	cfg := Default()
	cfg.Remote.RetryBudget = 0
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "remote.retry_budget") {
		t.Errorf("missing retry_budget error in %q", msg)
	}
	if !strings.Contains(msg, "ui.theme") {
		t.Errorf("missing theme error in %q", msg)
	}
}

// Global() and SetGlobal() must be safe under concurrent use.
func TestConcurrentGlobalAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
