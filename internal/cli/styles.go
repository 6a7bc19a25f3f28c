// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - shared lipgloss styles for CLI output.

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mentorward/mentor-tui/internal/ui/styles"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	mentorStyle = lipgloss.NewStyle().
			Foreground(styles.MentorBubbleFg)
)

// paint applies a style only when colors are enabled, so piped output
// and NO_COLOR runs stay free of escape sequences.
func paint(style lipgloss.Style, text string) string {
	if !ColorEnabled() {
		return text
	}
	return style.Render(text)
}

// renderWarning formats a warning line, plain-prefixed when colors are off.
func renderWarning(text string) string {
	if !ColorEnabled() {
		return styles.StatusIndicators.Warning + " " + text
	}
	return styles.RenderWarning(text)
}

// renderError formats an error line, plain-prefixed when colors are off.
func renderError(text string) string {
	if !ColorEnabled() {
		return styles.StatusIndicators.Error + " " + text
	}
	return styles.RenderError(text)
}

// renderInfo formats an informational line, plain-prefixed when colors are off.
func renderInfo(text string) string {
	if !ColorEnabled() {
		return styles.StatusIndicators.Info + " " + text
	}
	return styles.RenderInfo(text)
}
