package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seaweedSwimmerAPI/internal/achievement"
	"seaweedSwimmerAPI/internal/events"
	"seaweedSwimmerAPI/internal/leaderboard"
	"seaweedSwimmerAPI/internal/store"
	"seaweedSwimmerAPI/services"
)

type nopPublisher struct{}

func (nopPublisher) Publish(*events.Event) bool { return true }

func newRouter(svc LeaderboardService) *mux.Router {
	r := mux.NewRouter()
	NewLeaderboardHandler(svc).RegisterRoutes(r.PathPrefix("/api").Subrouter())
	return r
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	st, err := store.NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	return newRouter(services.NewLeaderboardService(st, nopPublisher{}))
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestRoot(t *testing.T) {
	rr := do(t, newTestRouter(t), http.MethodGet, "/api/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	info := decode[leaderboard.RootInfo](t, rr)
	assert.Equal(t, "Seaweed Swimmer 2 API", info.Message)
	assert.Equal(t, "1.0", info.Version)
}

func TestSubmitFlow(t *testing.T) {
	r := newTestRouter(t)

	rr := do(t, r, http.MethodPost, "/api/leaderboard/submit", `{"username":"Alice","score":100,"achievement":"🥇 Gold Swimmer"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	created := decode[leaderboard.Entry](t, rr)
	assert.Equal(t, int64(100), created.Score)

	rr = do(t, r, http.MethodPost, "/api/leaderboard/submit", `{"username":"Alice","score":50,"achievement":"🥈 Silver Swimmer"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	unchanged := decode[leaderboard.Entry](t, rr)
	assert.Equal(t, created.ID, unchanged.ID)
	assert.Equal(t, int64(100), unchanged.Score)
	assert.Equal(t, "🥇 Gold Swimmer", unchanged.Achievement)

	rr = do(t, r, http.MethodPost, "/api/leaderboard/submit", `{"username":"Alice","score":150,"achievement":"🌟 Legendary Swimmer"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	improved := decode[leaderboard.Entry](t, rr)
	assert.Equal(t, created.ID, improved.ID)
	assert.Equal(t, int64(150), improved.Score)
	assert.True(t, created.Timestamp.Equal(improved.Timestamp))

	rr = do(t, r, http.MethodGet, "/api/leaderboard/check-username?username=Alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	check := decode[leaderboard.UsernameCheck](t, rr)
	assert.False(t, check.Available)
	assert.Equal(t, "Alice", check.Username)

	rr = do(t, r, http.MethodGet, "/api/leaderboard/rank/Alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	rank := decode[leaderboard.Rank](t, rr)
	assert.Equal(t, int64(1), rank.Rank)
	assert.Equal(t, int64(150), rank.Score)
	assert.Equal(t, "🌟 Legendary Swimmer", rank.Achievement)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "malformed json", body: `{"username":`},
		{name: "fractional score", body: `{"username":"Alice","score":1.5}`},
		{name: "short username", body: `{"username":"ab","score":1}`, field: "username"},
		{name: "invalid char", body: `{"username":"bob!","score":1}`, field: "username"},
		{name: "negative score", body: `{"username":"Alice","score":-3}`, field: "score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(t), http.MethodPost, "/api/leaderboard/submit", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)

			body := decode[map[string]string](t, rr)
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestGlobal(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{
		`{"username":"Low","score":10}`,
		`{"username":"High","score":90}`,
		`{"username":"Mid","score":50}`,
	} {
		rr := do(t, r, http.MethodPost, "/api/leaderboard/submit", body)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := do(t, r, http.MethodGet, "/api/leaderboard/global?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decode[[]leaderboard.Entry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, "High", entries[0].Username)
	assert.Equal(t, "Mid", entries[1].Username)

	rr = do(t, r, http.MethodGet, "/api/leaderboard/global", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]leaderboard.Entry](t, rr), 3)

	rr = do(t, r, http.MethodGet, "/api/leaderboard/global?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGlobalEmptyIsArray(t *testing.T) {
	rr := do(t, newTestRouter(t), http.MethodGet, "/api/leaderboard/global", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCheckUsername(t *testing.T) {
	r := newTestRouter(t)

	rr := do(t, r, http.MethodGet, "/api/leaderboard/check-username?username=Fish+Lord", "")
	require.Equal(t, http.StatusOK, rr.Code)
	check := decode[leaderboard.UsernameCheck](t, rr)
	assert.True(t, check.Available)
	assert.Equal(t, "Fish Lord", check.Username)

	for _, target := range []string{
		"/api/leaderboard/check-username?username=ab",
		"/api/leaderboard/check-username?username=bob%21",
		"/api/leaderboard/check-username",
	} {
		rr := do(t, r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestRank(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{
		`{"username":"Alice","score":300}`,
		`{"username":"Bob Fish","score":300}`,
		`{"username":"Carol","score":200}`,
	} {
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/leaderboard/submit", body).Code)
	}

	rr := do(t, r, http.MethodGet, "/api/leaderboard/rank/Bob%20Fish", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(1), decode[leaderboard.Rank](t, rr).Rank)

	rr = do(t, r, http.MethodGet, "/api/leaderboard/rank/Carol", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(3), decode[leaderboard.Rank](t, rr).Rank)

	rr = do(t, r, http.MethodGet, "/api/leaderboard/rank/ghost", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Username not found", decode[map[string]string](t, rr)["error"])
}

func TestAchievements(t *testing.T) {
	rr := do(t, newTestRouter(t), http.MethodGet, "/api/leaderboard/achievements", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, achievement.Tiers(), decode[[]achievement.Tier](t, rr))
}

type brokenService struct{}

func (brokenService) Submit(context.Context, string, int64, string) (*leaderboard.Entry, error) {
	return nil, &leaderboard.StorageError{Op: "insert entry", Err: errors.New("disk full")}
}

func (brokenService) ListTop(context.Context, int) ([]leaderboard.Entry, error) {
	return nil, &leaderboard.StorageError{Op: "fetch leaderboard", Err: errors.New("timeout")}
}

func (brokenService) CheckUsername(context.Context, string) (*leaderboard.UsernameCheck, error) {
	return nil, &leaderboard.StorageError{Op: "check username", Err: errors.New("timeout")}
}

func (brokenService) GetRank(context.Context, string) (*leaderboard.Rank, error) {
	return nil, &leaderboard.StorageError{Op: "find entry", Err: errors.New("timeout")}
}

func TestStorageFailuresAreInternalErrors(t *testing.T) {
	r := newRouter(brokenService{})

	requests := []struct {
		method, target, body string
	}{
		{http.MethodPost, "/api/leaderboard/submit", `{"username":"Alice","score":1}`},
		{http.MethodGet, "/api/leaderboard/global", ""},
		{http.MethodGet, "/api/leaderboard/check-username?username=Alice", ""},
		{http.MethodGet, "/api/leaderboard/rank/Alice", ""},
	}
	for _, req := range requests {
		rr := do(t, r, req.method, req.target, req.body)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, req.target)
		assert.Equal(t, "Internal server error", decode[map[string]string](t, rr)["error"])
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler(fakePinger{}).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rr)["status"])

	rr = httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("down")}).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "unhealthy", decode[map[string]string](t, rr)["status"])
}
