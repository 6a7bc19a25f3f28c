// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the mentor CLI.
//
// Handles the "mentor ask" command which sends one question to the
// remote endpoint and prints the reply to stdout, rendered as markdown
// on a TTY.
//
// Command: ask [question]
//
// Examples:
//   mentor ask "Why does my loop print twice?"
//   mentor ask --force "Give me the fixed code"
//   echo "What does this error mean?" | mentor ask
//
// Flags:
//   -f, --force      Request a direct answer (force mode request shape)
//   -w, --watch FILE Annotate the prompt with this file's context
//   -q, --quiet      Minimal output

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// HandleAskCommand handles the "ask" command.
func HandleAskCommand(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	question := strings.TrimSpace(args.Query)

	// Piped stdin is an alternate question source.
	if question == "" && !IsTTY() {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err == nil {
			question = strings.TrimSpace(string(data))
		}
	}

	if question == "" {
		return fmt.Errorf("no question provided. Usage: mentor ask \"your question\"")
	}

	stack, err := BuildStack(cfg, args)
	if err != nil {
		return err
	}
	defer stack.Close()

	if !stack.Client.IsConfigured() {
		return fmt.Errorf("no endpoint configured; set remote.endpoint in config or MENTOR_ENDPOINT")
	}

	opts := stack.Options()
	opts.ForceMode = args.Force

	reply, err := stack.Client.Complete(context.Background(), question, opts, stack.History, stack.Provider.Snapshot())
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if cfg.UI.Markdown && IsStdoutTTY() {
		fmt.Print(renderMarkdown(reply))
	} else {
		fmt.Print(reply)
	}
	fmt.Println()

	// One-shot exchanges are archived under their own session id.
	if stack.Store != nil {
		entries := stack.History.Last(2)
		if len(entries) == 2 {
			sessionID := "ask_" + entries[0].Timestamp.Format("20060102_150405")
			if err := stack.Store.SaveExchange(sessionID, entries[0], entries[1], false); err != nil && !args.Quiet {
				fmt.Fprintln(os.Stderr, renderWarning(
					fmt.Sprintf("transcript save failed: %v", err)))
			}
		}
	}

	return nil
}
