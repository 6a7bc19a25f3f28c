// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mentorward/mentor-tui/internal/history"
)

func openTestStore(t *testing.T) *TranscriptStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func saveAt(t *testing.T, store *TranscriptStore, session, user, reply string, local bool, at time.Time) {
	t.Helper()
	u := history.NewUserMessage(user)
	u.Timestamp = at
	a := history.NewAssistantMessage(reply)
	if err := store.SaveExchange(session, u, a, local); err != nil {
		t.Fatalf("SaveExchange failed: %v", err)
	}
}

func TestSaveAndRecent(t *testing.T) {
	store := openTestStore(t)
	base := time.Now().Add(-time.Hour)

	saveAt(t, store, "sess_a", "first question", "first answer", false, base)
	saveAt(t, store, "sess_a", "second question", "guidance", true, base.Add(time.Minute))
	saveAt(t, store, "sess_b", "other session", "other answer", false, base.Add(2*time.Minute))

	got, err := store.Recent("sess_a", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d exchanges, expected 2", len(got))
	}
	if got[0].User != "first question" || got[1].User != "second question" {
		t.Errorf("wrong order: %q then %q", got[0].User, got[1].User)
	}
	if got[0].Local {
		t.Error("remote exchange flagged local")
	}
	if !got[1].Local {
		t.Error("mentor exchange should be flagged local")
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		saveAt(t, store, "s", "q", "a", false, base.Add(time.Duration(i)*time.Minute))
	}

	got, err := store.Recent("s", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("Recent(limit=3) returned %d", len(got))
	}
}

func TestSessions(t *testing.T) {
	store := openTestStore(t)
	base := time.Now().Add(-time.Hour)

	saveAt(t, store, "old", "this is a very old question about print statements in python", "a", false, base)
	saveAt(t, store, "new", "newer", "a", false, base.Add(30*time.Minute))

	sessions, err := store.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Sessions returned %d, expected 2", len(sessions))
	}
	if sessions[0].SessionID != "new" {
		t.Errorf("newest session first, got %q", sessions[0].SessionID)
	}
	if sessions[1].ExchangeCount != 1 {
		t.Errorf("ExchangeCount = %d, expected 1", sessions[1].ExchangeCount)
	}
	if len(sessions[1].Preview) == 0 || len(sessions[1].Preview) > 63 {
		t.Errorf("preview not truncated sensibly: %q", sessions[1].Preview)
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i, sess := range []string{"s1", "s2", "s3"} {
		saveAt(t, store, sess, "q", "a", false, base.Add(time.Duration(i)*time.Minute))
	}

	if err := store.Prune(2); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	sessions, err := store.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("after prune: %d sessions, expected 2", len(sessions))
	}
	for _, s := range sessions {
		if s.SessionID == "s1" {
			t.Error("oldest session should have been pruned")
		}
	}
}

func TestClosedStore(t *testing.T) {
	store := openTestStore(t)
	store.Close()

	if err := store.SaveExchange("s", history.NewUserMessage("q"), history.NewAssistantMessage("a"), false); err != ErrClosed {
		t.Errorf("SaveExchange after close = %v, expected ErrClosed", err)
	}
	if _, err := store.Recent("s", 1); err != ErrClosed {
		t.Errorf("Recent after close = %v, expected ErrClosed", err)
	}
}
