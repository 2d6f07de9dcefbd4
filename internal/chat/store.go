package chat

import (
	"context"
	"fmt"

	"github.com/mindspark-app/mindspark/internal/db"
)

// Store persists transcripts in the chat_sessions and chat_messages tables.
type Store struct {
	db *db.DB
}

// NewStore creates a new chat store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// SaveTranscript replaces the stored transcript of session id.
func (s *Store) SaveTranscript(ctx context.Context, id string, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (id) VALUES (?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = datetime('now')`, id)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	for i, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (session_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			id, i, string(e.Role), e.Text)
		if err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transcript: %w", err)
	}
	return nil
}

// LoadTranscript returns the stored transcript of session id, or
// ErrSessionNotFound.
func (s *Store) LoadTranscript(ctx context.Context, id string) ([]Entry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if exists == 0 {
		return nil, ErrSessionNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM chat_messages WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role string
		if err := rows.Scan(&role, &e.Text); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		e.Role = Role(role)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteSession removes a session and its messages.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CountSessions returns the number of stored sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
