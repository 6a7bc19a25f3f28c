// version command - Build information and usage help.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import "fmt"

// Version information, synced from main at startup (set at build time).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// HandleVersionCommand prints build information.
func HandleVersionCommand(args Args) {
	if args.Quiet {
		fmt.Println(Version)
		return
	}
	fmt.Printf("mentor %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
}

// HandleHelpCommand prints top-level usage.
func HandleHelpCommand() {
	fmt.Print(`mentor - editor side-panel mentor chat

Usage:
  mentor                 Start the side-panel TUI
  mentor chat            Start a plain-terminal chat REPL
  mentor ask <question>  One-shot question, answer to stdout
  mentor version         Show build information
  mentor help            Show this help

Flags:
  --config <path>     Use an alternate config file
  --watch, -w <path>  Watch a source file for editor context
  --force, -f         Start in force-answer mode
  --no-archive        Do not persist transcripts for this run
  --quiet, -q         Suppress informational output
  --verbose, -v       Extra diagnostics

Piped input works for one-shot asks:
  cat main.go | mentor ask "what does this do?"
`)
}
