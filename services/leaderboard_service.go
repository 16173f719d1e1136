package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"seaweedSwimmerAPI/internal/achievement"
	"seaweedSwimmerAPI/internal/events"
	"seaweedSwimmerAPI/internal/leaderboard"
	"seaweedSwimmerAPI/internal/metrics"
	"seaweedSwimmerAPI/internal/store"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// EventPublisher receives leaderboard changes after they are stored.
type EventPublisher interface {
	Publish(evt *events.Event) bool
}

type LeaderboardService struct {
	store     store.Store
	publisher EventPublisher
	now       func() time.Time
}

func NewLeaderboardService(st store.Store, publisher EventPublisher) *LeaderboardService {
	return &LeaderboardService{
		store:     st,
		publisher: publisher,
		now:       time.Now,
	}
}

// Submit records score for username. A new username gets a fresh entry; an
// existing one is only overwritten when score is strictly higher, keeping its
// id and original timestamp. An empty achievement is derived from the score.
func (s *LeaderboardService) Submit(ctx context.Context, username string, score int64, label string) (*leaderboard.Entry, error) {
	name, err := leaderboard.ValidateUsername(username)
	if err != nil {
		metrics.Submissions.WithLabelValues(string(leaderboard.OutcomeRejected)).Inc()
		return nil, err
	}
	if err := leaderboard.ValidateScore(score); err != nil {
		metrics.Submissions.WithLabelValues(string(leaderboard.OutcomeRejected)).Inc()
		return nil, err
	}

	if strings.TrimSpace(label) == "" {
		label = achievement.ForScore(score)
	}

	existing, err := s.store.FindByUsername(ctx, name.String())
	switch {
	case errors.Is(err, store.ErrNotFound):
		entry, err := s.create(ctx, name, score, label)
		if !errors.Is(err, store.ErrDuplicate) {
			return entry, err
		}

		// Another request created this username first; compete as an update.
		existing, err = s.store.FindByUsername(ctx, name.String())
		if err != nil {
			return nil, &leaderboard.StorageError{Op: "find entry", Err: err}
		}
	case err != nil:
		return nil, &leaderboard.StorageError{Op: "find entry", Err: err}
	}

	return s.improve(ctx, existing, score, label)
}

func (s *LeaderboardService) create(ctx context.Context, name leaderboard.Username, score int64, label string) (*leaderboard.Entry, error) {
	entry := &leaderboard.Entry{
		ID:          uuid.New().String(),
		Username:    name.String(),
		Score:       score,
		Achievement: label,
		Timestamp:   s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		return nil, &leaderboard.StorageError{Op: "insert entry", Err: err}
	}

	s.record(leaderboard.OutcomeCreated, events.TypeEntryCreated, entry, nil)
	return entry, nil
}

func (s *LeaderboardService) improve(ctx context.Context, existing *leaderboard.Entry, score int64, label string) (*leaderboard.Entry, error) {
	if score <= existing.Score {
		metrics.Submissions.WithLabelValues(string(leaderboard.OutcomeUnchanged)).Inc()
		return existing, nil
	}

	updated, err := s.store.UpdateIfHigher(ctx, existing.Username, score, label)
	if errors.Is(err, store.ErrNotFound) {
		// A concurrent submit stored an equal or higher score in the meantime.
		current, err := s.store.FindByUsername(ctx, existing.Username)
		if err != nil {
			return nil, &leaderboard.StorageError{Op: "find entry", Err: err}
		}
		metrics.Submissions.WithLabelValues(string(leaderboard.OutcomeUnchanged)).Inc()
		return current, nil
	}
	if err != nil {
		return nil, &leaderboard.StorageError{Op: "update entry", Err: err}
	}

	previous := existing.Score
	s.record(leaderboard.OutcomeImproved, events.TypeEntryImproved, updated, &previous)
	return updated, nil
}

func (s *LeaderboardService) record(outcome leaderboard.Outcome, typ events.Type, entry *leaderboard.Entry, previous *int64) {
	metrics.Submissions.WithLabelValues(string(outcome)).Inc()
	s.publisher.Publish(&events.Event{
		Type:          typ,
		Entry:         *entry,
		PreviousScore: previous,
		OccurredAt:    s.now().UTC(),
	})
}

// ListTop returns the highest scores first. A non-positive limit means the
// default, and limits above MaxListLimit are capped.
func (s *LeaderboardService) ListTop(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	entries, err := s.store.Top(ctx, limit)
	if err != nil {
		return nil, &leaderboard.StorageError{Op: "fetch leaderboard", Err: err}
	}
	return entries, nil
}

// CheckUsername reports whether the trimmed username is still free. The
// response echoes the name as given.
func (s *LeaderboardService) CheckUsername(ctx context.Context, username string) (*leaderboard.UsernameCheck, error) {
	name, err := leaderboard.ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	_, err = s.store.FindByUsername(ctx, name.String())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &leaderboard.UsernameCheck{Username: username, Available: true}, nil
	case err != nil:
		return nil, &leaderboard.StorageError{Op: "check username", Err: err}
	}

	return &leaderboard.UsernameCheck{Username: username, Available: false}, nil
}

// GetRank returns the user's dense rank: one more than the number of entries
// with a strictly greater score, so tied users share a rank.
func (s *LeaderboardService) GetRank(ctx context.Context, username string) (*leaderboard.Rank, error) {
	entry, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, leaderboard.ErrNotFound
	}
	if err != nil {
		return nil, &leaderboard.StorageError{Op: "find entry", Err: err}
	}

	higher, err := s.store.CountHigher(ctx, entry.Score)
	if err != nil {
		return nil, &leaderboard.StorageError{Op: "count higher scores", Err: err}
	}

	return &leaderboard.Rank{
		Username:    entry.Username,
		Rank:        higher + 1,
		Score:       entry.Score,
		Achievement: entry.Achievement,
	}, nil
}

func (s *LeaderboardService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
