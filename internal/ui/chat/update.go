// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mentorward/mentor-tui/internal/session"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshViewport()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Submit):
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.submitCmd(content)

		case key.Matches(msg, m.keyMap.ToggleMode):
			if err := m.ctl.ToggleForceAnswer(); err != nil {
				m.setWarning(toggleWarning(err))
			}
			return m, nil

		case key.Matches(msg, m.keyMap.Clear):
			m.ctl.Clear()
			return m, nil

		case key.Matches(msg, m.keyMap.ScrollUp):
			m.viewport.HalfViewUp()
			return m, nil

		case key.Matches(msg, m.keyMap.ScrollDown):
			m.viewport.HalfViewDown()
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

	case TypingMsg:
		m.typing = msg.Active
		if msg.Active {
			cmds = append(cmds, m.spinner.Tick)
		}

	case SessionStateMsg:
		m.snap = msg.Snapshot
		m.refreshViewport()
		m.viewport.GotoBottom()

	case WarnMsg:
		m.setWarning(msg.Text)

	case SendDoneMsg:
		// Busy and other rejections already arrive as warnings via the
		// sink; nothing extra to surface here.

	case TickMsg:
		if m.warning != "" && time.Since(m.warningAt) > warningTTL {
			m.warning = ""
		}
		cmds = append(cmds, tickCmd())

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submitCmd runs the prompt through the session controller. The call
// blocks until the reply lands, so it runs as a command, off the UI
// goroutine.
func (m Model) submitCmd(content string) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		err := ctl.HandleUserMessage(context.Background(), content)
		return SendDoneMsg{Err: err}
	}
}

func (m *Model) setWarning(text string) {
	m.warning = text
	m.warningAt = time.Now()
}

func toggleWarning(err error) string {
	var ce *session.CooldownError
	if errors.As(err, &ce) {
		return fmt.Sprintf("Mode locked for %ds", ce.RemainingSeconds)
	}
	return err.Error()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 1
	inputHeight := 3
	statusHeight := 2

	vpHeight := height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = width - 4
}
