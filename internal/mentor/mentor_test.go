// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentor

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateTemplateSelection(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		wantCode bool
	}{
		{"python prompt", "why does my Python loop break", true},
		{"code prompt", "this code is wrong", true},
		{"function prompt", "explain this function", true},
		{"generic prompt", "what should I learn next", false},
		{"empty prompt", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Generate(tc.prompt, 30)
			isCode := strings.Contains(got, "Read the code out loud")
			if isCode != tc.wantCode {
				t.Errorf("Generate(%q) picked code template = %v, expected %v", tc.prompt, isCode, tc.wantCode)
			}
			if !strings.Contains(got, "30s") {
				t.Errorf("Generate should embed remaining seconds, got %q", got)
			}
			if !strings.Contains(got, "\n") {
				t.Error("Generate should return multi-line guidance")
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate("explain this function", 90)
	b := Generate("explain this function", 90)
	if a != b {
		t.Error("Generate should be deterministic for identical inputs")
	}
}

func TestGenerateClampsNegative(t *testing.T) {
	got := Generate("hello", -5)
	if !strings.Contains(got, "0s") {
		t.Errorf("negative remaining seconds should clamp to 0, got %q", got)
	}
	if strings.Contains(got, "-5") {
		t.Error("negative seconds leaked into the template")
	}
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"exact seconds", now.Add(120 * time.Second), 120},
		{"rounds up", now.Add(1500 * time.Millisecond), 2},
		{"sub-second rounds up", now.Add(10 * time.Millisecond), 1},
		{"already passed", now.Add(-3 * time.Second), 0},
		{"exactly now", now, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RemainingSeconds(tc.deadline, now)
			if got != tc.want {
				t.Errorf("RemainingSeconds = %d, expected %d", got, tc.want)
			}
		})
	}
}
