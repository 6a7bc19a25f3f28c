// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/mentorward/mentor-tui/internal/history"
	"github.com/mentorward/mentor-tui/internal/mentor"
	"github.com/mentorward/mentor-tui/internal/session"
)

func TestArgParserFlags(t *testing.T) {
	p := NewArgParser([]string{"ask", "--watch", "main.py", "--quiet", "--config=custom.toml", "what", "is", "this"})

	if got := p.Positional(0); got != "ask" {
		t.Errorf("subcommand = %q", got)
	}
	if got := p.Flag("watch"); got != "main.py" {
		t.Errorf("watch = %q", got)
	}
	if !p.BoolFlag("quiet") {
		t.Error("quiet flag not detected")
	}
	if got := p.Flag("config"); got != "custom.toml" {
		t.Errorf("config = %q", got)
	}
	if got := strings.Join(p.PositionalFrom(1), " "); got != "what is this" {
		t.Errorf("query = %q", got)
	}
}

func TestArgParserExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--force=false", "--verbose=true"})
	if p.BoolFlag("force") {
		t.Error("force=false parsed as true")
	}
	if !p.BoolFlag("verbose") {
		t.Error("verbose=true not detected")
	}
}

func TestParseArgs(t *testing.T) {
	args := ParseArgs([]string{"ask", "-f", "--no-archive", "why", "two", "outputs?"})

	if args.Command != "ask" {
		t.Errorf("command = %q", args.Command)
	}
	if !args.Force {
		t.Error("short force flag not detected")
	}
	if !args.NoArchive {
		t.Error("no-archive not detected")
	}
	if args.Query != "why two outputs?" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseArgsEmpty(t *testing.T) {
	args := ParseArgs(nil)
	if args.Command != "" || args.Query != "" || args.Force {
		t.Errorf("zero args should parse to zero values: %+v", args)
	}
}

func TestColorAllowed(t *testing.T) {
	cases := []struct {
		name    string
		noColor bool
		tty     bool
		profile termenv.Profile
		want    bool
	}{
		{"color terminal", false, true, termenv.ANSI256, true},
		{"truecolor terminal", false, true, termenv.TrueColor, true},
		{"no_color wins over tty", true, true, termenv.ANSI256, false},
		{"piped output", false, false, termenv.ANSI256, false},
		{"dumb terminal", false, true, termenv.Ascii, false},
	}
	for _, tc := range cases {
		if got := colorAllowed(tc.noColor, tc.tty, tc.profile); got != tc.want {
			t.Errorf("%s: colorAllowed = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPaintWithoutColorIsPlain(t *testing.T) {
	// Tests run with stdout piped, so ColorEnabled is false and paint
	// must pass text through untouched.
	if got := paint(promptStyle, "> "); got != "> " {
		t.Errorf("paint added escapes to piped output: %q", got)
	}
	if got := renderWarning("disk full"); got != "[!] disk full" {
		t.Errorf("renderWarning = %q", got)
	}
	if got := renderError("bad request"); got != "[X] bad request" {
		t.Errorf("renderError = %q", got)
	}
	if got := renderInfo("saved"); got != "[i] saved" {
		t.Errorf("renderInfo = %q", got)
	}
}

func TestReplSinkPrintsNewEntries(t *testing.T) {
	var buf bytes.Buffer
	sink := &replSink{out: &buf}

	snap := session.Snapshot{DisplayLog: []history.Message{
		history.NewUserMessage("what does print do?"),
		history.NewAssistantMessage("It writes a line to stdout."),
	}}
	sink.RenderState(snap)

	out := buf.String()
	if strings.Contains(out, "what does print do?") {
		t.Error("user input should not be echoed back")
	}
	if !strings.Contains(out, "writes a line to stdout") {
		t.Error("assistant reply missing from output")
	}

	// Re-rendering the same snapshot prints nothing new.
	buf.Reset()
	sink.RenderState(snap)
	if buf.Len() != 0 {
		t.Errorf("already-printed entries emitted again: %q", buf.String())
	}
}

func TestReplSinkResetsAfterClear(t *testing.T) {
	var buf bytes.Buffer
	sink := &replSink{out: &buf}

	sink.RenderState(session.Snapshot{DisplayLog: []history.Message{
		history.NewUserMessage("q"),
		history.NewAssistantMessage("first answer"),
	}})

	// Clear, then a fresh exchange.
	sink.RenderState(session.Snapshot{})
	buf.Reset()
	sink.RenderState(session.Snapshot{DisplayLog: []history.Message{
		history.NewUserMessage("again"),
		history.NewAssistantMessage("second answer"),
	}})

	if !strings.Contains(buf.String(), "second answer") {
		t.Error("entries after a clear were not printed")
	}
}

func TestReplSinkLabelsMentorReplies(t *testing.T) {
	var buf bytes.Buffer
	sink := &replSink{out: &buf}

	reply := mentor.Generate("how do python functions work", 90)
	sink.RenderState(session.Snapshot{DisplayLog: []history.Message{
		history.NewUserMessage("how do python functions work"),
		history.NewAssistantMessage(reply),
	}})

	if !strings.Contains(buf.String(), "[mentor]") {
		t.Error("mentor reply missing the mentor label")
	}
}
