// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"fmt"
	"testing"
)

// TestWindowSlidingCap verifies that for any number of appends the stored
// length is min(appended, MaxEntries) and the retained entries are the most
// recent ones in original order.
func TestWindowSlidingCap(t *testing.T) {
	for _, total := range []int{0, 1, 7, 8, 9, 20} {
		t.Run(fmt.Sprintf("appends=%d", total), func(t *testing.T) {
			w := New()
			for i := 0; i < total; i++ {
				w.Append(NewUserMessage(fmt.Sprintf("msg-%d", i)))
			}

			want := total
			if want > MaxEntries {
				want = MaxEntries
			}
			got := w.All()
			if len(got) != want {
				t.Fatalf("Len = %d, expected %d", len(got), want)
			}

			// Retained entries must be the newest, oldest first.
			for i, msg := range got {
				expected := fmt.Sprintf("msg-%d", total-want+i)
				if msg.Content != expected {
					t.Errorf("entry %d = %q, expected %q", i, msg.Content, expected)
				}
			}
		})
	}
}

// TestWindowDefensiveCopy verifies caller mutation of All() results does not
// leak into the window.
func TestWindowDefensiveCopy(t *testing.T) {
	w := New()
	w.Append(NewUserMessage("original"))

	snapshot := w.All()
	snapshot[0].Content = "mutated"

	if w.All()[0].Content != "original" {
		t.Error("mutating the returned slice affected internal state")
	}
}

// TestWindowClearIdempotent verifies clearing twice yields the same empty
// state as clearing once.
func TestWindowClearIdempotent(t *testing.T) {
	w := New()
	w.Append(NewUserMessage("a"))
	w.Append(NewAssistantMessage("b"))

	w.Clear()
	if w.Len() != 0 {
		t.Fatalf("Len after clear = %d, expected 0", w.Len())
	}

	w.Clear()
	if w.Len() != 0 {
		t.Fatalf("Len after second clear = %d, expected 0", w.Len())
	}

	// Window must remain usable after clearing.
	w.Append(NewUserMessage("c"))
	if w.Len() != 1 {
		t.Fatalf("Len after append post-clear = %d, expected 1", w.Len())
	}
}

// TestWindowLast verifies the recent-entries helper.
func TestWindowLast(t *testing.T) {
	w := New()
	for i := 0; i < 5; i++ {
		w.Append(NewUserMessage(fmt.Sprintf("m%d", i)))
	}

	tests := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{-1, nil},
		{2, []string{"m3", "m4"}},
		{5, []string{"m0", "m1", "m2", "m3", "m4"}},
		{10, []string{"m0", "m1", "m2", "m3", "m4"}},
	}

	for _, tc := range tests {
		got := w.Last(tc.n)
		if len(got) != len(tc.want) {
			t.Errorf("Last(%d) returned %d entries, expected %d", tc.n, len(got), len(tc.want))
			continue
		}
		for i, msg := range got {
			if msg.Content != tc.want[i] {
				t.Errorf("Last(%d)[%d] = %q, expected %q", tc.n, i, msg.Content, tc.want[i])
			}
		}
	}
}

// TestMessageConstructors verifies role tagging and ID generation.
func TestMessageConstructors(t *testing.T) {
	user := NewUserMessage("hello")
	if user.Role != RoleUser || user.Content != "hello" {
		t.Errorf("NewUserMessage incorrect: role=%s content=%s", user.Role, user.Content)
	}
	if user.ID == "" {
		t.Error("NewUserMessage should generate an ID")
	}
	if user.Timestamp.IsZero() {
		t.Error("NewUserMessage should set a timestamp")
	}

	assistant := NewAssistantMessage("hi")
	if assistant.Role != RoleAssistant || assistant.Content != "hi" {
		t.Errorf("NewAssistantMessage incorrect: role=%s content=%s", assistant.Role, assistant.Content)
	}
	if assistant.ID == user.ID {
		t.Error("message IDs should be unique")
	}
}
