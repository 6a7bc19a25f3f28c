// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor supplies the "what is the learner editing" snapshot used
// to annotate code-flavored prompts. The rest of the system treats the
// snapshot as opaque context; nothing here touches editor buffers.
package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Snapshot describes the file currently being edited.
type Snapshot struct {
	FileName   string
	LanguageID string
	LineCount  int
}

// Provider supplies the current editing context, or nil when none is
// available.
type Provider interface {
	Snapshot() *Snapshot
}

// =============================================================================
// STATIC PROVIDER
// =============================================================================

// StaticProvider returns a fixed snapshot. Used for tests and for the
// one-shot CLI where the context is given on the command line.
type StaticProvider struct {
	snap *Snapshot
}

// NewStaticProvider creates a provider that always returns snap.
func NewStaticProvider(snap *Snapshot) *StaticProvider {
	return &StaticProvider{snap: snap}
}

// Snapshot implements Provider.
func (p *StaticProvider) Snapshot() *Snapshot {
	return p.snap
}

// NoContext is a provider with no active editing context.
var NoContext Provider = NewStaticProvider(nil)

// =============================================================================
// FILE PROVIDER
// =============================================================================

// FileProvider tracks a single file on disk and keeps its snapshot fresh
// via fsnotify, falling back to polling when the platform watcher cannot
// be created.
type FileProvider struct {
	path string

	mu   sync.Mutex
	snap *Snapshot

	watcher  *fsnotify.Watcher
	debounce time.Duration
	pending  bool
	lastEvt  time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewFileProvider creates a provider for path and takes an initial
// snapshot. The file does not have to exist yet; the snapshot stays nil
// until it does.
func NewFileProvider(path string) *FileProvider {
	p := &FileProvider{
		path:     path,
		debounce: 200 * time.Millisecond,
		done:     make(chan struct{}),
	}
	p.refresh()
	return p
}

// Watch starts tracking file changes. fsnotify is tried first; when the
// watcher itself cannot be created the provider polls every few seconds
// instead. A missing parent directory is a real error: neither fsnotify
// nor polling will ever see the file appear there.
func (p *FileProvider) Watch() error {
	dir := filepath.Dir(p.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("cannot watch %s: %w", p.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		go p.poll(5 * time.Second)
		return nil
	}

	// Watch the directory, not the file: editors commonly replace files
	// on save, which drops a file-level watch.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		go p.poll(5 * time.Second)
		return nil
	}

	p.watcher = watcher
	go p.processEvents()
	go p.processPending()
	return nil
}

// Snapshot implements Provider. Returns nil when the file is unreadable.
func (p *FileProvider) Snapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		return nil
	}
	snap := *p.snap
	return &snap
}

// Close stops the watcher goroutines. Safe to call more than once.
func (p *FileProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.watcher != nil {
			err = p.watcher.Close()
		}
	})
	return err
}

func (p *FileProvider) processEvents() {
	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				p.mu.Lock()
				p.pending = true
				p.lastEvt = time.Now()
				p.mu.Unlock()
			}
		case _, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (p *FileProvider) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			due := p.pending && time.Since(p.lastEvt) >= p.debounce
			if due {
				p.pending = false
			}
			p.mu.Unlock()
			if due {
				p.refresh()
			}
		}
	}
}

func (p *FileProvider) poll(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.refresh()
		}
	}
}

// refresh re-reads the file and rebuilds the snapshot.
func (p *FileProvider) refresh() {
	content, err := os.ReadFile(p.path)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.snap = nil
		return
	}

	p.snap = &Snapshot{
		FileName:   filepath.Base(p.path),
		LanguageID: DetectLanguage(p.path),
		LineCount:  countLines(content),
	}
}

// countLines counts newline-terminated lines, treating a trailing partial
// line as a line.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := strings.Count(string(content), "\n")
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// =============================================================================
// LANGUAGE DETECTION
// =============================================================================

// languageByExt maps file extensions to editor language identifiers.
var languageByExt = map[string]string{
	".py":   "python",
	".go":   "go",
	".js":   "javascript",
	".ts":   "typescript",
	".rb":   "ruby",
	".rs":   "rust",
	".java": "java",
	".c":    "c",
	".cpp":  "cpp",
	".sh":   "shell",
	".md":   "markdown",
	".html": "html",
	".css":  "css",
	".json": "json",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
}

// DetectLanguage returns the language identifier for a path, or
// "plaintext" when the extension is unknown.
func DetectLanguage(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plaintext"
}
