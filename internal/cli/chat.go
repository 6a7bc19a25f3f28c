// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the mentor CLI.
//
// Handles the "mentor chat" command, a line-oriented REPL over the same
// session controller the TUI panel uses.
//
// Command: chat
//
// Examples:
//   mentor chat                 Start an interactive session
//   mentor chat --force         Start with force-answer mode on
//   mentor chat --no-archive    Skip transcript persistence
//
// Interactive Commands (during chat):
//   /force          Toggle force-answer mode
//   /clear          Clear the conversation
//   /status         Show session state
//   /help           Show available commands
//   /quit           Exit chat
//   Ctrl+C          Abort the current line
//   Ctrl+D          Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/mentorward/mentor-tui/internal/config"
	"github.com/mentorward/mentor-tui/internal/history"
	"github.com/mentorward/mentor-tui/internal/mentor"
	"github.com/mentorward/mentor-tui/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput provides input history and line editing for interactive chat.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	return &chatInput{line: line, historyFile: historyFile}
}

func (c *chatInput) close() {
	if f, err := os.Create(c.historyFile); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
	c.line.Close()
}

// =============================================================================
// REPL SINK
// =============================================================================

// replSink prints session updates as they happen. It tracks how much of
// the display log has been printed so each render only emits the new
// entries.
type replSink struct {
	out      io.Writer
	printed  int
	markdown bool
}

func (s *replSink) ShowTyping() {
	fmt.Fprintln(s.out, paint(infoStyle, "thinking..."))
}

func (s *replSink) HideTyping() {}

func (s *replSink) RenderState(snap session.Snapshot) {
	if len(snap.DisplayLog) < s.printed {
		// Log was cleared.
		s.printed = 0
	}
	for _, msg := range snap.DisplayLog[s.printed:] {
		s.printMessage(msg)
	}
	s.printed = len(snap.DisplayLog)
}

func (s *replSink) printMessage(msg history.Message) {
	if msg.Role == history.RoleUser {
		// The user just typed it; echoing is noise.
		return
	}

	body := msg.Content
	switch {
	case mentor.IsTemplated(body):
		fmt.Fprintln(s.out, paint(mentorStyle, "[mentor]"))
		fmt.Fprintln(s.out, body)
	case s.markdown:
		fmt.Fprint(s.out, renderMarkdown(body))
	default:
		fmt.Fprintln(s.out, body)
	}
	fmt.Fprintln(s.out)
}

func (s *replSink) Warn(text string) {
	fmt.Fprintln(s.out, renderWarning(text))
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	stack, err := BuildStack(cfg, args)
	if err != nil {
		return err
	}
	defer stack.Close()

	sink := &replSink{out: os.Stdout, markdown: cfg.UI.Markdown && IsStdoutTTY()}
	ctl := stack.NewController(sink)
	defer ctl.Close()

	if args.Force {
		if err := ctl.ToggleForceAnswer(); err != nil {
			fmt.Fprintln(os.Stderr, renderWarning(err.Error()))
		}
	}

	printWelcome(stack, args)

	input := newChatInput()
	defer input.close()

	for {
		text, err := input.line.Prompt(paint(promptStyle, "> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// Ctrl+D or closed stdin ends the session.
			fmt.Println()
			return nil
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		input.line.AppendHistory(text)

		if strings.HasPrefix(text, "/") {
			if quit := handleSlashCommand(ctl, text); quit {
				return nil
			}
			continue
		}

		if err := ctl.HandleUserMessage(context.Background(), text); err != nil &&
			!errors.Is(err, session.ErrBusy) {
			fmt.Fprintln(os.Stderr, renderError(err.Error()))
		}
	}
}

func printWelcome(stack *Stack, args Args) {
	if args.Quiet {
		return
	}
	fmt.Println(paint(welcomeStyle, "mentor chat"))
	if !stack.Client.IsConfigured() {
		fmt.Println(renderWarning("no endpoint configured; set remote.endpoint in config or MENTOR_ENDPOINT"))
	}
	fmt.Println(renderInfo("Type /help for commands, Ctrl+D to exit."))
	fmt.Println()
}

// handleSlashCommand dispatches an interactive /command. Returns true when
// the session should end.
func handleSlashCommand(ctl *session.Controller, text string) bool {
	switch strings.ToLower(strings.Fields(text)[0]) {
	case "/quit", "/q", "/exit":
		return true

	case "/force", "/f":
		if err := ctl.ToggleForceAnswer(); err != nil {
			var ce *session.CooldownError
			if errors.As(err, &ce) {
				fmt.Println(renderWarning(
					fmt.Sprintf("mode locked for another %ds", ce.RemainingSeconds)))
			} else {
				fmt.Println(renderWarning(err.Error()))
			}
			return false
		}
		if ctl.State().ForceAnswer {
			fmt.Println(paint(commandStyle, "force-answer mode ON"))
		} else {
			fmt.Println(paint(commandStyle, "force-answer mode OFF"))
		}

	case "/clear", "/c":
		ctl.Clear()
		fmt.Println(paint(commandStyle, "conversation cleared"))

	case "/status", "/s":
		printStatus(ctl)

	case "/help", "/h":
		printChatHelp()

	default:
		fmt.Println(renderWarning("unknown command; try /help"))
	}
	return false
}

func printStatus(ctl *session.Controller) {
	snap := ctl.State()

	fmt.Println(paint(infoStyle, "session: ") + ctl.SessionID())
	fmt.Printf("%s %v\n", paint(infoStyle, "force-answer:"), snap.ForceAnswer)
	if snap.CooldownActive {
		remaining := mentor.RemainingSeconds(snap.CooldownEnd, time.Now())
		fmt.Printf("%s active, %ds remaining\n", paint(infoStyle, "cooldown:"), remaining)
	} else {
		fmt.Printf("%s inactive\n", paint(infoStyle, "cooldown:"))
	}
	fmt.Printf("%s %d entries\n", paint(infoStyle, "display log:"), len(snap.DisplayLog))
	if ctx := ctl.Context(); ctx != nil {
		fmt.Printf("%s %s (%s, %d lines)\n",
			paint(infoStyle, "context:"), ctx.FileName, ctx.LanguageID, ctx.LineCount)
	}
}

func printChatHelp() {
	rows := [][2]string{
		{"/force", "toggle force-answer mode"},
		{"/clear", "clear the conversation"},
		{"/status", "show session state"},
		{"/quit", "exit chat"},
	}
	for _, row := range rows {
		fmt.Printf("  %s  %s\n", paint(commandStyle, row[0]), paint(infoStyle, row[1]))
	}
}
