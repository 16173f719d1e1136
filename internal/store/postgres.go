package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"seaweedSwimmerAPI/internal/leaderboard"
)

const pgUniqueViolation = "23505"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS leaderboard (
		id          TEXT PRIMARY KEY,
		username    TEXT NOT NULL UNIQUE,
		score       BIGINT NOT NULL CHECK (score >= 0),
		achievement TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS leaderboard_score_idx ON leaderboard (score DESC)`,
}

type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres opens a connection pool for dbURL and creates the schema.
func NewPostgres(ctx context.Context, dbURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Info("Connected to Postgres")
	return &PostgresStore{db: pool}, nil
}

func scanPostgresEntry(row rowScanner) (*leaderboard.Entry, error) {
	entry := &leaderboard.Entry{}
	err := row.Scan(&entry.ID, &entry.Username, &entry.Score, &entry.Achievement, &entry.Timestamp)
	if err != nil {
		return nil, err
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return entry, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*leaderboard.Entry, error) {
	query := `
	SELECT id, username, score, achievement, created_at
	FROM leaderboard
	WHERE username = $1
	`

	entry, err := scanPostgresEntry(s.db.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

func (s *PostgresStore) Insert(ctx context.Context, entry *leaderboard.Entry) error {
	query := `
	INSERT INTO leaderboard (id, username, score, achievement, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query, entry.ID, entry.Username, entry.Score, entry.Achievement, entry.Timestamp)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) UpdateIfHigher(ctx context.Context, username string, score int64, achievement string) (*leaderboard.Entry, error) {
	query := `
	UPDATE leaderboard
	SET score = $2, achievement = $3
	WHERE username = $1 AND score < $2
	RETURNING id, username, score, achievement, created_at
	`

	entry, err := scanPostgresEntry(s.db.QueryRow(ctx, query, username, score, achievement))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	query := `
	SELECT id, username, score, achievement, created_at
	FROM leaderboard
	ORDER BY score DESC, created_at ASC
	LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]leaderboard.Entry, 0, limit)
	for rows.Next() {
		entry, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

func (s *PostgresStore) CountHigher(ctx context.Context, score int64) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM leaderboard WHERE score > $1`, score).Scan(&count)
	return count, err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) truncate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `TRUNCATE leaderboard`)
	return err
}
