package achievement

// Tier is one step of the score ladder. A score earns the label of the highest
// tier whose MinScore it reaches.
type Tier struct {
	MinScore int64  `json:"min_score"`
	Label    string `json:"label"`
}

// tiers must stay ordered by MinScore, highest first.
var tiers = []Tier{
	{MinScore: 1000, Label: "👑 Ocean Deity"},
	{MinScore: 700, Label: "🌌 Abyssal Master"},
	{MinScore: 500, Label: "🌟 Legendary Swimmer"},
	{MinScore: 300, Label: "🐠 Fish Whisperer"},
	{MinScore: 200, Label: "⭐ Deep Sea Explorer"},
	{MinScore: 100, Label: "🥇 Gold Swimmer"},
	{MinScore: 50, Label: "🥈 Silver Swimmer"},
	{MinScore: 20, Label: "🥉 Bronze Swimmer"},
	{MinScore: 0, Label: "🐟 Novice Swimmer"},
}

// ForScore returns the achievement label for score. Negative scores fall into
// the lowest tier.
func ForScore(score int64) string {
	for _, t := range tiers {
		if score >= t.MinScore {
			return t.Label
		}
	}
	return tiers[len(tiers)-1].Label
}

// Tiers returns a copy of the ladder, highest tier first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}
