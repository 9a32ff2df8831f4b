package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"pujaboard/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Subscribe adds a chat to the daily digest list. Subscribing twice
// is a no-op.
func (s *SQLite) Subscribe(ctx context.Context, chatID int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (chat_id, created_at) VALUES (?, ?)`,
		chatID, now,
	)
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

// Unsubscribe removes a chat from the digest list and clears its
// announcement history.
func (s *SQLite) Unsubscribe(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM announced WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete announcements: %w", err)
	}
	return nil
}

// IsSubscribed checks whether a chat is on the digest list.
func (s *SQLite) IsSubscribed(ctx context.Context, chatID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers WHERE chat_id = ?`, chatID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check subscriber: %w", err)
	}
	return count > 0, nil
}

// ListSubscribers returns all subscribed chat IDs.
func (s *SQLite) ListSubscribers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM subscribers ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chats []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		chats = append(chats, id)
	}
	return chats, rows.Err()
}

// MarkAnnounced records that an event was included in a chat's digest.
func (s *SQLite) MarkAnnounced(ctx context.Context, chatID int64, eventID string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO announced (chat_id, event_id, announced_at) VALUES (?, ?, ?)`,
		chatID, eventID, now,
	)
	if err != nil {
		return fmt.Errorf("mark announced: %w", err)
	}
	return nil
}

// IsAnnounced checks whether an event was already sent to a chat.
func (s *SQLite) IsAnnounced(ctx context.Context, chatID int64, eventID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM announced WHERE chat_id = ? AND event_id = ?`,
		chatID, eventID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check announced: %w", err)
	}
	return count > 0, nil
}
