package leaderboard

import "time"

// Entry is one row of the global leaderboard. There is at most one per username.
type Entry struct {
	ID          string    `json:"id" bson:"id" db:"id"`
	Username    string    `json:"username" bson:"username" db:"username"`
	Score       int64     `json:"score" bson:"score" db:"score"`
	Achievement string    `json:"achievement" bson:"achievement" db:"achievement"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp" db:"timestamp"`
}

// Outcome describes what a submission did to the stored entry.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeImproved  Outcome = "improved"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeRejected  Outcome = "rejected"
)

type Rank struct {
	Username    string `json:"username"`
	Rank        int64  `json:"rank"`
	Score       int64  `json:"score"`
	Achievement string `json:"achievement"`
}
