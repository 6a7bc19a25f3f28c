// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mentorward/mentor-tui/internal/session"
)

// PanelSink adapts session controller callbacks into Bubble Tea messages.
//
// The session controller is built before the Bubble Tea program exists, so
// the sink starts detached and buffers messages until Attach wires in
// Program.Send. The controller may call it from any goroutine.
type PanelSink struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
}

// NewPanelSink creates a detached sink.
func NewPanelSink() *PanelSink {
	return &PanelSink{}
}

// Attach wires the sink to a running program and flushes anything buffered
// while detached.
func (s *PanelSink) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, msg := range pending {
		send(msg)
	}
}

func (s *PanelSink) dispatch(msg tea.Msg) {
	s.mu.Lock()
	if s.send == nil {
		s.pending = append(s.pending, msg)
		s.mu.Unlock()
		return
	}
	send := s.send
	s.mu.Unlock()
	send(msg)
}

// ShowTyping implements session.Sink.
func (s *PanelSink) ShowTyping() {
	s.dispatch(TypingMsg{Active: true})
}

// HideTyping implements session.Sink.
func (s *PanelSink) HideTyping() {
	s.dispatch(TypingMsg{Active: false})
}

// RenderState implements session.Sink.
func (s *PanelSink) RenderState(snap session.Snapshot) {
	s.dispatch(SessionStateMsg{Snapshot: snap})
}

// Warn implements session.Sink.
func (s *PanelSink) Warn(text string) {
	s.dispatch(WarnMsg{Text: text})
}
