// args.go - Unified argument parsing for all CLI commands in mentor-tui.
//
// Every command shares one parser so flags behave the same everywhere:
// long flags, short flags, booleans, and positional arguments.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides unified argument parsing for CLI commands.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser creates a new argument parser from raw arguments.
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if strings.HasPrefix(arg, "-") {
			// --flag=value format
			if strings.Contains(arg, "=") {
				parts := strings.SplitN(arg, "=", 2)
				flagName := strings.TrimLeft(parts[0], "-")
				flagValue := parts[1]

				if flagValue == "true" || flagValue == "false" {
					parser.boolFlags[flagName] = flagValue == "true"
				} else {
					parser.flags[flagName] = flagValue
				}
				i++
				continue
			}

			flagName := strings.TrimLeft(arg, "-")

			// A following non-flag token is this flag's value.
			if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
				parser.flags[flagName] = raw[i+1]
				i += 2
			} else {
				parser.boolFlags[flagName] = true
				i++
			}
		} else {
			parser.positional = append(parser.positional, arg)
			i++
		}
	}

	return parser
}

// Flag returns the value of a string flag, or "" if absent.
func (p *ArgParser) Flag(name string) string {
	name = strings.TrimLeft(name, "-")
	return p.flags[name]
}

// BoolFlag returns the value of a boolean flag, or false if absent.
func (p *ArgParser) BoolFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	return p.boolFlags[name]
}

// HasFlag returns true if the flag exists in either form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Positional returns the positional argument at the given index,
// or "" when out of bounds.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// COMMAND ARGS
// =============================================================================

// Args carries the parsed command line for one invocation.
type Args struct {
	// Command is the subcommand: "", "chat", "ask", "version", "help"
	Command string
	// Query is the joined positional text after the subcommand (ask)
	Query string
	// ConfigPath overrides the default config file location
	ConfigPath string
	// WatchFile overrides the editor context file
	WatchFile string
	// Force starts the session in force-answer mode
	Force bool
	// NoArchive disables transcript persistence for this run
	NoArchive bool
	// Quiet suppresses informational output
	Quiet bool
	// Verbose enables extra diagnostics
	Verbose bool
}

// ParseArgs parses the raw command line (excluding the program name).
func ParseArgs(raw []string) Args {
	parser := NewArgParser(raw)

	args := Args{
		Command:    parser.Positional(0),
		ConfigPath: parser.Flag("config"),
		WatchFile:  firstNonEmpty(parser.Flag("watch"), parser.Flag("w")),
		Force:      parser.BoolFlag("force") || parser.BoolFlag("f"),
		NoArchive:  parser.BoolFlag("no-archive"),
		Quiet:      parser.BoolFlag("quiet") || parser.BoolFlag("q"),
		Verbose:    parser.BoolFlag("verbose") || parser.BoolFlag("v"),
	}
	args.Query = strings.Join(parser.PositionalFrom(1), " ")
	return args
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
