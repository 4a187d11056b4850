package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore persists sessions in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies pending migrations.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// GetSession loads the session for userID.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, credential, last_event_id, updated_at FROM sessions WHERE user_id = ?`, userID)

	var sess Session
	var updatedAt int64
	err := row.Scan(&sess.UserID, &sess.Credential, &sess.LastEventID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	return &sess, nil
}

// SaveCredential upserts the credential column only.
func (s *SQLiteStore) SaveCredential(ctx context.Context, userID, credential string) error {
	return s.upsert(ctx, "credential", userID, credential)
}

// SaveLastEventID upserts the last_event_id column only.
func (s *SQLiteStore) SaveLastEventID(ctx context.Context, userID, eventID string) error {
	return s.upsert(ctx, "last_event_id", userID, eventID)
}

// upsert writes one column. column is always a constant from this file.
func (s *SQLiteStore) upsert(ctx context.Context, column, userID, value string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	now := time.Now().Unix()
	query := fmt.Sprintf(`
		INSERT INTO sessions (user_id, %[1]s, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			%[1]s = excluded.%[1]s,
			updated_at = excluded.updated_at`, column)

	if _, err := s.db.ExecContext(ctx, query, userID, value, now, now); err != nil {
		return fmt.Errorf("save %s: %w", column, err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
