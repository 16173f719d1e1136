package events

import (
	"context"
	"time"

	"seaweedSwimmerAPI/internal/leaderboard"
)

type Type string

const (
	TypeEntryCreated  Type = "entry.created"
	TypeEntryImproved Type = "entry.improved"
)

// Event announces a change to the stored leaderboard.
type Event struct {
	Type          Type              `json:"type"`
	Entry         leaderboard.Entry `json:"entry"`
	PreviousScore *int64            `json:"previous_score,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// Bus delivers a single event to a downstream broker.
type Bus interface {
	Emit(ctx context.Context, evt *Event) error
	Close() error
}

// Discard is the Bus used when no broker is configured.
type Discard struct{}

func (Discard) Emit(context.Context, *Event) error { return nil }

func (Discard) Close() error { return nil }
