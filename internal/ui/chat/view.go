// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/mentorward/mentor-tui/internal/history"
	"github.com/mentorward/mentor-tui/internal/mentor"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderTypingLine())
	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("mentor")
	return m.theme.Header.Width(m.width).Render(title)
}

// refreshViewport rebuilds the viewport content from the display log.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}

	var b strings.Builder
	for i, msg := range m.snap.DisplayLog {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

func (m Model) renderMessage(msg history.Message, width int) string {
	body := wrapText(msg.Content, width)
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch msg.Role {
	case history.RoleUser:
		label := m.theme.UserLabel.Render("You")
		return label + " " + stamp + "\n" + m.theme.UserMessage.Width(width).Render(body)
	default:
		label := m.theme.AssistantLabel.Render("Assistant")
		style := m.theme.AssistantMessage
		if mentor.IsTemplated(msg.Content) {
			label = m.theme.MentorLabel.Render("Mentor")
			style = m.theme.MentorMessage
		}
		return label + " " + stamp + "\n" + style.Width(width).Render(body)
	}
}

func (m Model) renderTypingLine() string {
	if !m.typing {
		return "\n"
	}
	return m.spinner.View() + m.theme.ThinkingText.Render(" thinking...") + "\n"
}

func (m Model) renderStatusBar() string {
	var parts []string

	switch {
	case m.snap.CooldownActive:
		remaining := mentor.RemainingSeconds(m.snap.CooldownEnd, time.Now())
		parts = append(parts, m.theme.CooldownBadge.Render(fmt.Sprintf("COOLDOWN %ds", remaining)))
	case m.snap.ForceAnswer:
		parts = append(parts, m.theme.ForceBadge.Render("FORCE"))
	default:
		parts = append(parts, m.theme.ReadyBadge.Render("ready"))
	}

	if m.warning != "" {
		parts = append(parts, m.theme.WarningText.Render(m.warning))
	}

	if ctx := m.ctl.Context(); ctx != nil {
		summary := fmt.Sprintf("%s (%s, %d lines)", ctx.FileName, ctx.LanguageID, ctx.LineCount)
		parts = append(parts, m.theme.ContextSummary.Render(summary))
	}

	shortcuts := m.theme.ShortcutKey.Render("ctrl+f") + m.theme.ShortcutDesc.Render(" force ") +
		m.theme.ShortcutKey.Render("ctrl+l") + m.theme.ShortcutDesc.Render(" clear ") +
		m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" quit")
	parts = append(parts, shortcuts)

	line := strings.Join(parts, "  ")
	return m.theme.StatusBar.Width(m.width).Render(line)
}

// wrapText word-wraps text to the given display width, counting wide
// runes correctly.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= width {
			out = append(out, line)
			continue
		}

		var cur strings.Builder
		curWidth := 0
		flush := func() {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
				curWidth = 0
			}
		}
		for _, word := range strings.Fields(line) {
			// A single word wider than the panel gets hard-split across
			// lines rather than overflowing.
			for runewidth.StringWidth(word) > width {
				flush()
				head := runewidth.Truncate(word, width, "")
				out = append(out, head)
				word = strings.TrimPrefix(word, head)
			}
			w := runewidth.StringWidth(word)
			if curWidth > 0 && curWidth+1+w > width {
				flush()
			}
			if curWidth > 0 {
				cur.WriteString(" ")
				curWidth++
			}
			cur.WriteString(word)
			curWidth += w
		}
		flush()
	}

	return strings.Join(out, "\n")
}
