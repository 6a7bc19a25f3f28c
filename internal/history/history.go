// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides the rolling conversation window sent to the
// remote model as context.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxEntries is the maximum number of messages kept in the window.
// When exceeded, the oldest entries are dropped so the remote context
// stays bounded.
const MaxEntries = 8

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry. Messages are immutable once
// created; the window hands out copies, never its internal slice.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message with a generated ID.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message with a generated ID.
func NewAssistantMessage(content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// CONVERSATION WINDOW
// =============================================================================

// Window is a bounded, append-only (with head truncation) log of messages.
// It is constructed per session and shared between the session controller
// and the remote client; it is never addressed as a process-wide singleton.
type Window struct {
	mu      sync.Mutex
	entries []Message
	cap     int
}

// New creates an empty window with the default capacity.
func New() *Window {
	return NewWithCap(MaxEntries)
}

// NewWithCap creates an empty window with a custom capacity.
// Capacities below 1 fall back to the default.
func NewWithCap(capacity int) *Window {
	if capacity < 1 {
		capacity = MaxEntries
	}
	return &Window{
		entries: make([]Message, 0, capacity),
		cap:     capacity,
	}
}

// Append adds a message to the tail, discarding from the head until the
// window is back within capacity. There are no error conditions.
func (w *Window) Append(msg Message) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = append(w.entries, msg)
	if len(w.entries) > w.cap {
		overflow := len(w.entries) - w.cap
		w.entries = append(w.entries[:0], w.entries[overflow:]...)
	}
}

// All returns the entries oldest first as a defensive copy. Mutating the
// returned slice does not affect the window.
func (w *Window) All() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Message, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len returns the number of stored entries.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Clear empties the window.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = w.entries[:0]
}

// Last returns up to n of the most recent entries, oldest first.
func (w *Window) Last(n int) []Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n <= 0 {
		return nil
	}
	start := len(w.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(w.entries)-start)
	copy(out, w.entries[start:])
	return out
}
