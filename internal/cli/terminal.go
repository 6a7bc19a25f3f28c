// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and handling for the mentor CLI.
//
// TTY detection keeps interactive affordances (colors, prompts, markdown)
// out of piped output and CI logs, and NO_COLOR is honored.

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const defaultWidth = 80

// TerminalWidth returns the stdout width, or a default when stdout is not
// a terminal.
func TerminalWidth() int {
	if !IsStdoutTTY() {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// =============================================================================
// COLOR CONTROL
// =============================================================================

var (
	colorOnce    sync.Once
	colorEnabled bool
)

// ColorEnabled reports whether colored output should be produced.
// Colors are off for pipes and when NO_COLOR is set.
func ColorEnabled() bool {
	colorOnce.Do(func() {
		_, noColor := os.LookupEnv("NO_COLOR")
		colorEnabled = colorAllowed(noColor, IsStdoutTTY(), termenv.ColorProfile())
	})
	return colorEnabled
}

// colorAllowed holds the decision logic behind ColorEnabled. NO_COLOR
// wins over everything, then the pipe check, then terminal capability.
func colorAllowed(noColor, tty bool, profile termenv.Profile) bool {
	if noColor || !tty {
		return false
	}
	return profile != termenv.Ascii
}
