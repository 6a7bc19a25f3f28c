// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists completed exchanges to a local SQLite
// transcript archive. Session state itself is never persisted; only
// finished user/assistant pairs land here, so a restart always begins
// with a fresh session against a browsable record of past ones.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mentorward/mentor-tui/internal/history"
	"github.com/mentorward/mentor-tui/internal/util"
)

// ErrClosed indicates use after Close.
var ErrClosed = errors.New("transcript store is closed")

// Exchange is one archived user/assistant pair.
type Exchange struct {
	ID        int64
	SessionID string
	User      string
	Assistant string
	// Local marks replies produced by the mentor templates rather than
	// the remote model.
	Local     bool
	CreatedAt time.Time
}

// SessionInfo summarizes one archived session for listings.
type SessionInfo struct {
	SessionID     string
	ExchangeCount int
	FirstAt       time.Time
	LastAt        time.Time
	Preview       string // first user message, truncated
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore is the SQLite-backed archive.
type TranscriptStore struct {
	db *sql.DB
}

// DefaultPath returns the archive location under the user config dir.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mentor", "transcripts.db"), nil
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*TranscriptStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &TranscriptStore{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT    NOT NULL,
	user_text   TEXT    NOT NULL,
	reply_text  TEXT    NOT NULL,
	local       INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, created_at);
`

// Close releases the database handle.
func (s *TranscriptStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// WRITES
// =============================================================================

// SaveExchange archives one completed exchange. Implements
// session.Archiver.
func (s *TranscriptStore) SaveExchange(sessionID string, user, assistant history.Message, local bool) error {
	if s.db == nil {
		return ErrClosed
	}
	localFlag := 0
	if local {
		localFlag = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO exchanges (session_id, user_text, reply_text, local, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, user.Content, assistant.Content, localFlag, user.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// Prune keeps only the newest maxSessions sessions, deleting the rest.
// A maxSessions of 0 or less is a no-op.
func (s *TranscriptStore) Prune(maxSessions int) error {
	if s.db == nil {
		return ErrClosed
	}
	if maxSessions <= 0 {
		return nil
	}
	_, err := s.db.Exec(`
		DELETE FROM exchanges WHERE session_id NOT IN (
			SELECT session_id FROM exchanges
			GROUP BY session_id
			ORDER BY MAX(created_at) DESC
			LIMIT ?
		)`, maxSessions)
	return err
}

// =============================================================================
// READS
// =============================================================================

// Recent returns up to limit exchanges for a session, oldest first.
func (s *TranscriptStore) Recent(sessionID string, limit int) ([]Exchange, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, session_id, user_text, reply_text, local, created_at
		FROM (
			SELECT * FROM exchanges WHERE session_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		) ORDER BY created_at ASC, id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var local int
		var created int64
		if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.User, &ex.Assistant, &local, &created); err != nil {
			return nil, err
		}
		ex.Local = local != 0
		ex.CreatedAt = time.Unix(created, 0)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Sessions lists archived sessions, newest activity first.
func (s *TranscriptStore) Sessions() ([]SessionInfo, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(`
		SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
		FROM exchanges GROUP BY session_id ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var first, last int64
		if err := rows.Scan(&info.SessionID, &info.ExchangeCount, &first, &last); err != nil {
			return nil, err
		}
		info.FirstAt = time.Unix(first, 0)
		info.LastAt = time.Unix(last, 0)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Preview = s.preview(out[i].SessionID)
	}
	return out, nil
}

// preview fetches the first user message of a session, truncated for
// listings.
func (s *TranscriptStore) preview(sessionID string) string {
	var text string
	err := s.db.QueryRow(`
		SELECT user_text FROM exchanges WHERE session_id = ?
		ORDER BY created_at ASC, id ASC LIMIT 1`, sessionID).Scan(&text)
	if err != nil {
		return ""
	}
	const maxPreview = 60
	return util.TruncateRunes(text, maxPreview)
}
