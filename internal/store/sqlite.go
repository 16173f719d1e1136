package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"seaweedSwimmerAPI/internal/leaderboard"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLiteStore keeps created_at as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the database at path (":memory:" for a private in-memory
// database) and creates the schema.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database, and a single writer
	// avoids SQLITE_BUSY on files.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.WithField("path", path).Info("Opened SQLite database")
	return &SQLiteStore{db: db}, nil
}

func scanSQLiteEntry(row rowScanner) (*leaderboard.Entry, error) {
	var (
		entry     leaderboard.Entry
		createdAt int64
	)
	if err := row.Scan(&entry.ID, &entry.Username, &entry.Score, &entry.Achievement, &createdAt); err != nil {
		return nil, err
	}
	entry.Timestamp = time.UnixMilli(createdAt).UTC()
	return &entry, nil
}

func (s *SQLiteStore) FindByUsername(ctx context.Context, username string) (*leaderboard.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, score, achievement, created_at FROM leaderboard WHERE username = ?`,
		username,
	)

	entry, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

func (s *SQLiteStore) Insert(ctx context.Context, entry *leaderboard.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leaderboard (id, username, score, achievement, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Username, entry.Score, entry.Achievement, entry.Timestamp.UnixMilli(),
	)

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && isUniqueViolation(sqliteErr.Code()) {
		return ErrDuplicate
	}
	return err
}

// isUniqueViolation accepts the base constraint code as well, for builds that
// report primary result codes only. The score CHECK cannot fire from Insert
// because scores are validated before they reach the store.
func isUniqueViolation(code int) bool {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT:
		return true
	}
	return false
}

func (s *SQLiteStore) UpdateIfHigher(ctx context.Context, username string, score int64, achievement string) (*leaderboard.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE leaderboard SET score = ?1, achievement = ?2
		WHERE username = ?3 AND score < ?1
		RETURNING id, username, score, achievement, created_at`,
		score, achievement, username,
	)

	entry, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

func (s *SQLiteStore) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, score, achievement, created_at
		FROM leaderboard
		ORDER BY score DESC, created_at ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]leaderboard.Entry, 0, limit)
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

func (s *SQLiteStore) CountHigher(ctx context.Context, score int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leaderboard WHERE score > ?`, score).Scan(&count)
	return count, err
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
