// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain-terminal front ends: the interactive
// chat REPL and the one-shot ask command. The TUI panel lives in
// internal/ui/chat; both fronts share the same session stack built here.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/mentorward/mentor-tui/internal/config"
	"github.com/mentorward/mentor-tui/internal/editor"
	"github.com/mentorward/mentor-tui/internal/history"
	"github.com/mentorward/mentor-tui/internal/remote"
	"github.com/mentorward/mentor-tui/internal/session"
	"github.com/mentorward/mentor-tui/internal/storage"
)

// =============================================================================
// SESSION STACK SETUP
// =============================================================================

// Stack bundles the wired session dependencies for one CLI run.
type Stack struct {
	Config   *config.Config
	Client   *remote.Client
	History  *history.Window
	Store    *storage.TranscriptStore // nil when archiving is off
	Provider editor.Provider
}

// LoadConfig resolves the configuration for this invocation.
func LoadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(args.ConfigPath)
	}
	cfg, err := config.Load()
	if err != nil {
		// A broken config file falls back to defaults with a notice; a
		// validation failure is fatal and returns nil.
		if cfg == nil {
			return nil, err
		}
		if !args.Quiet {
			fmt.Fprintln(os.Stderr, renderWarning(fmt.Sprintf("config: %v", err)))
		}
	}
	return cfg, nil
}

// BuildStack wires the remote client, history, storage, and editor
// context provider from config.
func BuildStack(cfg *config.Config, args Args) (*Stack, error) {
	client := remote.NewClient(cfg.Remote.Endpoint, cfg.Remote.Token).
		WithTimeout(time.Duration(cfg.Remote.TimeoutSecs) * time.Second).
		WithVerbose(args.Verbose)

	stack := &Stack{
		Config:   cfg,
		Client:   client,
		History:  history.New(),
		Provider: editor.NoContext,
	}

	watchFile := args.WatchFile
	if watchFile == "" {
		watchFile = cfg.Editor.WatchFile
	}
	if watchFile != "" {
		provider := editor.NewFileProvider(watchFile)
		if err := provider.Watch(); err != nil {
			fmt.Fprintln(os.Stderr, renderWarning(
				fmt.Sprintf("context watcher unavailable: %v", err)))
		} else {
			stack.Provider = provider
		}
	}

	if cfg.Storage.Enabled && !args.NoArchive {
		path := cfg.Storage.Path
		if path == "" {
			var err error
			path, err = storage.DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		store, err := storage.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open transcript archive: %w", err)
		}
		if cfg.Storage.MaxSessions > 0 {
			if err := store.Prune(cfg.Storage.MaxSessions); err != nil {
				fmt.Fprintln(os.Stderr, renderWarning(
					fmt.Sprintf("transcript prune failed: %v", err)))
			}
		}
		stack.Store = store
	}

	return stack, nil
}

// Options returns the base request options derived from config.
func (s *Stack) Options() remote.Options {
	opts := remote.DefaultOptions()
	if s.Config.Remote.RetryBudget > 0 {
		opts.RetryBudget = s.Config.Remote.RetryBudget
	}
	return opts
}

// NewController builds a session controller on this stack.
func (s *Stack) NewController(sink session.Sink) *session.Controller {
	ctl := session.New(s.Client, s.History, sink).
		WithProvider(s.Provider).
		WithOptions(s.Options()).
		WithCooldown(time.Duration(s.Config.Session.CooldownSecs) * time.Second)
	if s.Store != nil {
		ctl.WithArchiver(s.Store)
	}
	return ctl
}

// Close releases stack resources.
func (s *Stack) Close() {
	if s.Store != nil {
		s.Store.Close()
	}
	if closer, ok := s.Provider.(*editor.FileProvider); ok {
		closer.Close()
	}
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TerminalWidth()),
	)
	if err != nil {
		// Plain text fallback when the renderer cannot initialize.
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering is unavailable or fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil || !IsStdoutTTY() {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
