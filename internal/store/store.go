// Package store persists leaderboard entries. Every backend keeps username
// unique and performs score improvements as a single conditional write.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"seaweedSwimmerAPI/internal/config"
	"seaweedSwimmerAPI/internal/leaderboard"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{
	"component": "store",
})

var (
	// ErrNotFound means no entry matched the lookup or the conditional update.
	ErrNotFound = errors.New("entry not found")
	// ErrDuplicate means an entry with the same username already exists.
	ErrDuplicate = errors.New("username already exists")
)

// Store is the persistence contract of the leaderboard service.
type Store interface {
	// FindByUsername returns the entry with exactly this username.
	FindByUsername(ctx context.Context, username string) (*leaderboard.Entry, error)
	// Insert adds a new entry. It fails with ErrDuplicate if the username is taken.
	Insert(ctx context.Context, entry *leaderboard.Entry) error
	// UpdateIfHigher sets score and achievement only when the stored score is
	// strictly lower, returning the updated entry. ErrNotFound otherwise.
	UpdateIfHigher(ctx context.Context, username string, score int64, achievement string) (*leaderboard.Entry, error)
	// Top returns up to limit entries ordered by score, highest first.
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
	// CountHigher counts entries with a score strictly greater than score.
	CountHigher(ctx context.Context, score int64) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return NewMongo(ctx, cfg.MongoURL, cfg.DBName)
	case config.DriverPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}
