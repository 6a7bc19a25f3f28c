// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mentor-tui.
//
// Configuration lives in TOML with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location (in order of precedence):
//   - ~/.mentor/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/mentorward/mentor-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mentor-tui configuration.
type Config struct {
	Version string `toml:"version"`

	// Remote endpoint configuration
	Remote RemoteConfig `toml:"remote"`

	// Session behavior configuration
	Session SessionConfig `toml:"session"`

	// Editor context configuration
	Editor EditorConfig `toml:"editor"`

	// Transcript storage configuration
	Storage StorageConfig `toml:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// RemoteConfig contains the text-generation endpoint configuration.
type RemoteConfig struct {
	// Endpoint is the URL of the completion endpoint
	Endpoint string `toml:"endpoint"`
	// Token is the bearer token sent with each request
	Token string `toml:"token"`
	// RetryBudget is the maximum number of attempts per request
	RetryBudget int `toml:"retry_budget"`
	// TimeoutSecs is the per-attempt request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// SessionConfig contains conversation session configuration.
type SessionConfig struct {
	// CooldownSecs is how long forced answers lock the session, in seconds
	CooldownSecs int `toml:"cooldown_secs"`
	// MentorDuringCooldown enables locally templated replies while the
	// cooldown is active
	MentorDuringCooldown bool `toml:"mentor_during_cooldown"`
}

// EditorConfig contains active-file context configuration.
type EditorConfig struct {
	// WatchFile is the path of the file whose context annotates prompts.
	// Empty disables context annotation.
	WatchFile string `toml:"watch_file"`
}

// StorageConfig contains transcript archive configuration.
type StorageConfig struct {
	// Enabled controls whether exchanges are archived
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database path (empty = ~/.mentor/transcripts.db)
	Path string `toml:"path"`
	// MaxSessions caps how many sessions are kept (0 = unlimited)
	MaxSessions int `toml:"max_sessions"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// Markdown renders assistant replies as markdown in ask/chat modes
	Markdown bool `toml:"markdown"`
	// CompactMode uses a more compact panel layout
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Remote: RemoteConfig{
			Endpoint:    "",
			Token:       "",
			RetryBudget: 3,
			TimeoutSecs: 180,
		},

		Session: SessionConfig{
			CooldownSecs:         120,
			MentorDuringCooldown: true,
		},

		Editor: EditorConfig{
			WatchFile: "",
		},

		Storage: StorageConfig{
			Enabled:     true,
			Path:        "",
			MaxSessions: 200,
		},

		UI: UIConfig{
			Theme:       "dark",
			Markdown:    true,
			CompactMode: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the mentor-tui configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mentor"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// The file should be 0600 (owner read/write only) to protect the API token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadTOML(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := loadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions
// (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# mentor-tui configuration file")
	fmt.Fprintln(&buf, "# Generated by mentor-tui - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Atomic write so a crash mid-save never corrupts the config, and the
	// file never exists with permissions looser than 0600.
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Remote.Endpoint != "" {
		u, err := url.Parse(c.Remote.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Field:   "remote.endpoint",
				Message: fmt.Sprintf("invalid URL '%s', must be http or https", c.Remote.Endpoint),
			})
		}
	}

	if c.Remote.RetryBudget < 1 || c.Remote.RetryBudget > 10 {
		errs = append(errs, ValidationError{
			Field:   "remote.retry_budget",
			Message: fmt.Sprintf("must be 1-10, got %d", c.Remote.RetryBudget),
		})
	}

	if c.Remote.TimeoutSecs < 1 || c.Remote.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "remote.timeout_secs",
			Message: fmt.Sprintf("must be 1-600 seconds, got %d", c.Remote.TimeoutSecs),
		})
	}

	if c.Session.CooldownSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.cooldown_secs",
			Message: "must be non-negative",
		})
	}

	if c.Storage.MaxSessions < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_sessions",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Remote.RetryBudget == 0 {
		c.Remote.RetryBudget = defaults.Remote.RetryBudget
	}
	if c.Remote.TimeoutSecs == 0 {
		c.Remote.TimeoutSecs = defaults.Remote.TimeoutSecs
	}
	if c.Session.CooldownSecs == 0 {
		c.Session.CooldownSecs = defaults.Session.CooldownSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MENTOR_ENDPOINT: overrides remote.endpoint
//   - MENTOR_TOKEN: overrides remote.token
//   - MENTOR_COOLDOWN_SECS: overrides session.cooldown_secs
//   - MENTOR_WATCH_FILE: overrides editor.watch_file
//   - MENTOR_TRANSCRIPTS: overrides storage.path
//   - MENTOR_NO_ARCHIVE: set to "1" or "true" to disable transcript storage
//   - MENTOR_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("MENTOR_ENDPOINT"); endpoint != "" {
		c.Remote.Endpoint = endpoint
	}

	if token := os.Getenv("MENTOR_TOKEN"); token != "" {
		c.Remote.Token = token
	}

	if secs := os.Getenv("MENTOR_COOLDOWN_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n >= 0 {
			c.Session.CooldownSecs = n
		}
	}

	if file := os.Getenv("MENTOR_WATCH_FILE"); file != "" {
		c.Editor.WatchFile = file
	}

	if path := os.Getenv("MENTOR_TRANSCRIPTS"); path != "" {
		c.Storage.Path = path
	}

	if off := os.Getenv("MENTOR_NO_ARCHIVE"); off != "" {
		if off == "1" || strings.ToLower(off) == "true" {
			c.Storage.Enabled = false
		}
	}

	if theme := os.Getenv("MENTOR_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// The API token is redacted so it never appears in logs or error output.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Remote.Token != "" {
		safe.Remote.Token = "[REDACTED]"
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(safe); err != nil {
		return fmt.Sprintf("config (unencodable: %v)", err)
	}
	return b.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}
