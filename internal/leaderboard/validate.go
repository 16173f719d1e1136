package leaderboard

import (
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 15
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// Username is a username that passed ValidateUsername. It is always trimmed.
type Username string

func (u Username) String() string {
	return string(u)
}

// ValidateUsername checks length and charset on the raw value and returns the
// trimmed name. Names that are only spaces, or shrink below the minimum once
// trimmed, are rejected too.
func ValidateUsername(raw string) (Username, error) {
	if n := len(raw); n < MinUsernameLength || n > MaxUsernameLength {
		return "", &ValidationError{Field: "username", Reason: "Username must be between 3 and 15 characters"}
	}
	if !usernamePattern.MatchString(raw) {
		return "", &ValidationError{Field: "username", Reason: "Username can only contain alphanumeric characters and spaces"}
	}

	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < MinUsernameLength {
		return "", &ValidationError{Field: "username", Reason: "Username must be between 3 and 15 characters"}
	}

	return Username(trimmed), nil
}

func ValidateScore(score int64) error {
	if score < 0 {
		return &ValidationError{Field: "score", Reason: "Score must be non-negative"}
	}
	return nil
}
