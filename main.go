// mentor - An editor side-panel mentor chat for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/mentorward/mentor-tui/internal/cli"
	"github.com/mentorward/mentor-tui/internal/remote"
	"github.com/mentorward/mentor-tui/internal/ui/chat"
	"github.com/mentorward/mentor-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	remote.Version = Version
}

func main() {
	args := cli.ParseArgs(os.Args[1:])

	switch args.Command {
	case "":
		runTUI(args)
	case "chat":
		if err := cli.HandleChatCommand(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "ask":
		if err := cli.HandleAskCommand(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version":
		cli.HandleVersionCommand(args)
	case "help", "-h", "--help":
		cli.HandleHelpCommand()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Command)
		cli.HandleHelpCommand()
		os.Exit(1)
	}
}

// runTUI starts the side-panel interface.
func runTUI(args cli.Args) {
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stack, err := cli.BuildStack(cfg, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer stack.Close()

	// The sink buffers controller output until the program is running.
	sink := chat.NewPanelSink()
	ctl := stack.NewController(sink)
	defer ctl.Close()

	if args.Force {
		if err := ctl.ToggleForceAnswer(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	theme := styles.NewTheme()
	if err := chat.Run(ctl, sink, theme); err != nil {
		fmt.Fprintf(os.Stderr, "Error running mentor: %v\n", err)
		os.Exit(1)
	}
}
