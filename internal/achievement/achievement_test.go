package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForScore(t *testing.T) {
	tests := []struct {
		score int64
		want  string
	}{
		{score: 0, want: "🐟 Novice Swimmer"},
		{score: 19, want: "🐟 Novice Swimmer"},
		{score: 20, want: "🥉 Bronze Swimmer"},
		{score: 49, want: "🥉 Bronze Swimmer"},
		{score: 50, want: "🥈 Silver Swimmer"},
		{score: 100, want: "🥇 Gold Swimmer"},
		{score: 199, want: "🥇 Gold Swimmer"},
		{score: 200, want: "⭐ Deep Sea Explorer"},
		{score: 300, want: "🐠 Fish Whisperer"},
		{score: 500, want: "🌟 Legendary Swimmer"},
		{score: 699, want: "🌟 Legendary Swimmer"},
		{score: 700, want: "🌌 Abyssal Master"},
		{score: 999, want: "🌌 Abyssal Master"},
		{score: 1000, want: "👑 Ocean Deity"},
		{score: 1 << 40, want: "👑 Ocean Deity"},
		{score: -5, want: "🐟 Novice Swimmer"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ForScore(tt.score), "score %d", tt.score)
	}
}

func TestTiersOrderedHighestFirst(t *testing.T) {
	got := Tiers()
	assert.Len(t, got, 9)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i-1].MinScore, got[i].MinScore)
	}

	got[0].Label = "changed"
	assert.Equal(t, "👑 Ocean Deity", ForScore(1000))
}
