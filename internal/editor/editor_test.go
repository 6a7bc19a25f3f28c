// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.py", "python"},
		{"pkg/server.go", "go"},
		{"script.SH", "shell"},
		{"notes.txt", "plaintext"},
		{"noext", "plaintext"},
	}

	for _, tc := range tests {
		if got := DetectLanguage(tc.path); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, expected %q", tc.path, got, tc.want)
		}
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"single line no newline", "hello", 1},
		{"single line with newline", "hello\n", 1},
		{"three lines", "a\nb\nc\n", 3},
		{"trailing partial line", "a\nb\nc", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := countLines([]byte(tc.content)); got != tc.want {
				t.Errorf("countLines = %d, expected %d", got, tc.want)
			}
		})
	}
}

func TestStaticProvider(t *testing.T) {
	snap := &Snapshot{FileName: "main.py", LanguageID: "python", LineCount: 12}
	p := NewStaticProvider(snap)
	if got := p.Snapshot(); got != snap {
		t.Error("StaticProvider should return the configured snapshot")
	}

	if NoContext.Snapshot() != nil {
		t.Error("NoContext should return a nil snapshot")
	}
}

func TestFileProviderInitialSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.py")
	if err := os.WriteFile(path, []byte("print('hi')\nprint('bye')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFileProvider(path)
	defer p.Close()

	snap := p.Snapshot()
	if snap == nil {
		t.Fatal("expected snapshot for existing file")
	}
	if snap.FileName != "lesson.py" {
		t.Errorf("FileName = %q, expected lesson.py", snap.FileName)
	}
	if snap.LanguageID != "python" {
		t.Errorf("LanguageID = %q, expected python", snap.LanguageID)
	}
	if snap.LineCount != 2 {
		t.Errorf("LineCount = %d, expected 2", snap.LineCount)
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "absent.py"))
	defer p.Close()

	if p.Snapshot() != nil {
		t.Error("expected nil snapshot for a missing file")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "lesson.py")
	p := NewFileProvider(path)
	defer p.Close()

	if err := p.Watch(); err == nil {
		t.Error("expected an error when the parent directory does not exist")
	}
}

func TestWatchExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	p := NewFileProvider(filepath.Join(dir, "lesson.py"))
	defer p.Close()

	if err := p.Watch(); err != nil {
		t.Errorf("Watch failed for an existing directory: %v", err)
	}
}

func TestCloseTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	if err := os.WriteFile(path, []byte("package a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFileProvider(path)
	if err := p.Watch(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestFileProviderSnapshotIsCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	if err := os.WriteFile(path, []byte("package a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFileProvider(path)
	defer p.Close()

	first := p.Snapshot()
	first.LineCount = 999
	if p.Snapshot().LineCount == 999 {
		t.Error("mutating a returned snapshot affected the provider")
	}
}
