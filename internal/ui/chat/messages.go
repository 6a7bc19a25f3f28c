// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the side-panel chat view for the TUI.
//
// This file defines all Bubble Tea message types used by the panel.
// Messages are organized into the following categories:
//   - Input: User input submission
//   - Session: Typing indicator, state snapshots, and warnings from the
//     session controller
//   - UI State: Resize and countdown ticks
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/mentorward/mentor-tui/internal/session"
)

// =============================================================================
// INPUT MESSAGES
// =============================================================================

// SubmitInputMsg signals that the user submitted input.
type SubmitInputMsg struct {
	Content string
}

// SendDoneMsg signals that a submitted prompt finished processing.
type SendDoneMsg struct {
	Err error
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// TypingMsg toggles the typing indicator.
type TypingMsg struct {
	Active bool
}

// SessionStateMsg delivers a fresh session snapshot after a mutation.
type SessionStateMsg struct {
	Snapshot session.Snapshot
}

// WarnMsg surfaces a non-fatal session warning in the status area.
type WarnMsg struct {
	Text string
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// TickMsg drives the cooldown countdown in the status bar.
type TickMsg time.Time
