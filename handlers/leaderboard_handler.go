package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"seaweedSwimmerAPI/internal/achievement"
	"seaweedSwimmerAPI/internal/leaderboard"
)

const (
	APIMessage = "Seaweed Swimmer 2 API"
	APIVersion = "1.0"

	requestTimeout = 5 * time.Second
)

type LeaderboardService interface {
	Submit(ctx context.Context, username string, score int64, achievement string) (*leaderboard.Entry, error)
	ListTop(ctx context.Context, limit int) ([]leaderboard.Entry, error)
	CheckUsername(ctx context.Context, username string) (*leaderboard.UsernameCheck, error)
	GetRank(ctx context.Context, username string) (*leaderboard.Rank, error)
}

type LeaderboardHandler struct {
	service LeaderboardService
}

func NewLeaderboardHandler(service LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
	}
}

// RegisterRoutes mounts the leaderboard API on a router already scoped to /api.
func (h *LeaderboardHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/", h.Root).Methods("GET")
	api.HandleFunc("/leaderboard/submit", h.Submit).Methods("POST")
	api.HandleFunc("/leaderboard/global", h.Global).Methods("GET")
	api.HandleFunc("/leaderboard/check-username", h.CheckUsername).Methods("GET")
	api.HandleFunc("/leaderboard/rank/{username}", h.Rank).Methods("GET")
	api.HandleFunc("/leaderboard/achievements", h.Achievements).Methods("GET")
}

func (h *LeaderboardHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, leaderboard.RootInfo{
		Message: APIMessage,
		Version: APIVersion,
	})
}

func (h *LeaderboardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(logrus.Fields{
		"handler": "submit",
	})

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req leaderboard.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WithError(err).Debug("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.service.Submit(ctx, req.Username, req.Score, req.Achievement)
	if err != nil {
		h.respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

func (h *LeaderboardHandler) Global(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(logrus.Fields{
		"handler": "global",
	})

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithFieldError(w, http.StatusBadRequest, "limit", "Query parameter 'limit' must be an integer")
			return
		}
		limit = n
	}

	entries, err := h.service.ListTop(ctx, limit)
	if err != nil {
		h.respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *LeaderboardHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(logrus.Fields{
		"handler": "check_username",
	})

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	check, err := h.service.CheckUsername(ctx, r.URL.Query().Get("username"))
	if err != nil {
		h.respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, check)
}

func (h *LeaderboardHandler) Rank(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(logrus.Fields{
		"handler": "rank",
	})

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rank, err := h.service.GetRank(ctx, mux.Vars(r)["username"])
	if err != nil {
		h.respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rank)
}

func (h *LeaderboardHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, achievement.Tiers())
}

func (h *LeaderboardHandler) respondWithServiceError(w http.ResponseWriter, logger *logrus.Entry, err error) {
	var ve *leaderboard.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithFieldError(w, http.StatusBadRequest, ve.Field, ve.Reason)
	case errors.Is(err, leaderboard.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Username not found")
	default:
		logger.WithError(err).Error("Leaderboard request failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
