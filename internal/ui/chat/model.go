// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mentorward/mentor-tui/internal/session"
	"github.com/mentorward/mentor-tui/internal/ui/styles"
)

// warningTTL is how long a status warning stays visible.
const warningTTL = 5 * time.Second

// =============================================================================
// PANEL MODEL
// =============================================================================

// Model is the Bubble Tea model for the side panel.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Session
	ctl  *session.Controller
	snap session.Snapshot

	// Typing indicator
	typing bool

	// Transient warning shown in the status bar
	warning   string
	warningAt time.Time

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	keyMap KeyMap
}

// New creates the panel model wired to a session controller.
func New(ctl *session.Controller, theme *styles.Theme) Model {
	input := textinput.New()
	input.Placeholder = "Ask your question..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		theme:   theme,
		ctl:     ctl,
		snap:    ctl.State(),
		input:   input,
		spinner: sp,
		keyMap:  DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Run starts the panel program and blocks until it exits. The sink is
// attached once the program exists so controller callbacks reach the UI.
func Run(ctl *session.Controller, sink *PanelSink, theme *styles.Theme) error {
	p := tea.NewProgram(New(ctl, theme), tea.WithAltScreen())
	sink.Attach(p.Send)
	_, err := p.Run()
	return err
}
