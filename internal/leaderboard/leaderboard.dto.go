package leaderboard

type SubmitRequest struct {
	Username    string `json:"username"`
	Score       int64  `json:"score"`
	Achievement string `json:"achievement"`
}

type UsernameCheck struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

type RootInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
