// apps/go-server/internal/httpserver/server_test.go

package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyword/charades/apps/go-server/internal/game"
	"github.com/partyword/charades/apps/go-server/internal/phrases"
	"github.com/partyword/charades/apps/go-server/internal/store"
)

// newTestServer spins up the full router against an in-memory database.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	require.NoError(t, phrases.Init())

	db, err := sql.Open("sqlite3", "file::memory:?cache=shared&_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	testSchema(t, db)

	srv := New(store.NewMemoryStore(), db)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}
}

func testSchema(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY, username TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL, games_played INTEGER NOT NULL DEFAULT 0,
			phrases_guessed INTEGER NOT NULL DEFAULT 0, best_score INTEGER NOT NULL DEFAULT 0)`,
		`CREATE TABLE games (
			id TEXT PRIMARY KEY, user_id TEXT, anonymous_id TEXT, variant TEXT NOT NULL,
			phrase_count INTEGER NOT NULL, score INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'playing', started_at TEXT NOT NULL, finished_at TEXT)`,
		`CREATE TABLE daily_results (
			user_id TEXT NOT NULL, date TEXT NOT NULL, score INTEGER NOT NULL,
			phrase_count INTEGER NOT NULL, elapsed_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			UNIQUE (user_id, date))`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func postJSON(t *testing.T, c *http.Client, url string, body any, out any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := c.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	if out != nil {
		defer res.Body.Close()
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func getJSON(t *testing.T, c *http.Client, url string, out any) *http.Response {
	t.Helper()
	res, err := c.Get(url)
	require.NoError(t, err)
	if out != nil {
		defer res.Body.Close()
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func startGame(t *testing.T, c *http.Client, base string, req newGameReq) newGameRes {
	t.Helper()
	var created newGameRes
	res := postJSON(t, c, base+"/game/new", req, &created)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, created.GameID)
	return created
}

func TestNewGame_DefaultsAndState(t *testing.T) {
	ts, c := newTestServer(t)

	created := startGame(t, c, ts.URL, newGameReq{})
	assert.Equal(t, game.VariantNormal, created.Variant)
	assert.Equal(t, 10, created.PhraseCount)
	assert.Equal(t, 60, created.SecondsRemaining)
	assert.NotEmpty(t, created.Phrase)

	var st stateRes
	res := getJSON(t, c, ts.URL+"/game/"+created.GameID, &st)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, created.GameID, st.GameID)
	assert.Equal(t, 0, st.Score)
	assert.True(t, st.InputEnabled)
	assert.False(t, st.Ended)
}

func TestNewGame_UnknownVariantRejected(t *testing.T) {
	ts, c := newTestServer(t)
	res := postJSON(t, c, ts.URL+"/game/new", map[string]string{"variant": "speedrun"}, nil)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGesture_PassAdvancesImmediately(t *testing.T) {
	ts, c := newTestServer(t)
	created := startGame(t, c, ts.URL, newGameReq{
		Phrases: []string{"alpha", "beta", "gamma"},
		Seconds: 60,
	})
	require.Equal(t, "alpha", created.Phrase)

	var out gestureRes
	res := postJSON(t, c, ts.URL+"/game/gesture", gestureReq{GameID: created.GameID, Gesture: game.GestureSwipeForward}, &out)
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.Len(t, out.Events, 2)
	assert.Equal(t, game.EventPass, out.Events[0].Kind)
	assert.Equal(t, game.EventAdvance, out.Events[1].Kind)
	assert.Equal(t, "beta", out.State.Phrase)
	assert.Equal(t, 0, out.State.Score)
	assert.True(t, out.State.InputEnabled)
}

func TestGesture_TapScoresAndGatesInput(t *testing.T) {
	ts, c := newTestServer(t)
	created := startGame(t, c, ts.URL, newGameReq{
		Phrases: []string{"alpha", "beta"},
		Seconds: 60,
	})

	// The response is captured synchronously inside the handler, so the
	// gate is observable here without racing the delayed advance.
	var out gestureRes
	postJSON(t, c, ts.URL+"/game/gesture", gestureReq{GameID: created.GameID, Gesture: game.GestureTap}, &out)
	require.Len(t, out.Events, 1)
	assert.Equal(t, game.EventScore, out.Events[0].Kind)
	assert.Equal(t, 1, out.State.Score)
	assert.False(t, out.State.InputEnabled) // gated until the delayed advance
	assert.Equal(t, "alpha", out.State.Phrase)
}

func TestGesture_BackwardSwipeRejected(t *testing.T) {
	ts, c := newTestServer(t)
	created := startGame(t, c, ts.URL, newGameReq{
		Phrases: []string{"alpha", "beta"},
		Seconds: 60,
	})

	var out gestureRes
	postJSON(t, c, ts.URL+"/game/gesture", gestureReq{GameID: created.GameID, Gesture: game.GestureSwipeBackward}, &out)
	require.Len(t, out.Events, 1)
	assert.Equal(t, game.EventReject, out.Events[0].Kind)
	assert.Equal(t, "alpha", out.State.Phrase)
}

func TestGesture_UnknownGestureRejected(t *testing.T) {
	ts, c := newTestServer(t)
	created := startGame(t, c, ts.URL, newGameReq{Phrases: []string{"alpha"}, Seconds: 60})

	res := postJSON(t, c, ts.URL+"/game/gesture", map[string]string{"gameId": created.GameID, "gesture": "shake"}, nil)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestEvents_CursorReplay(t *testing.T) {
	ts, c := newTestServer(t)
	created := startGame(t, c, ts.URL, newGameReq{
		Phrases: []string{"alpha", "beta", "gamma"},
		Seconds: 60,
	})

	postJSON(t, c, ts.URL+"/game/gesture", gestureReq{GameID: created.GameID, Gesture: game.GestureSwipeForward}, nil)
	postJSON(t, c, ts.URL+"/game/gesture", gestureReq{GameID: created.GameID, Gesture: game.GestureSwipeForward}, nil)

	var page struct {
		Events  []loggedEvent `json:"events"`
		LastSeq int           `json:"lastSeq"`
	}
	getJSON(t, c, ts.URL+"/game/"+created.GameID+"/events", &page)
	require.Len(t, page.Events, 4) // pass, advance, pass, advance
	assert.Equal(t, 4, page.LastSeq)
	assert.Equal(t, 1, page.Events[0].Seq)

	var tail struct {
		Events []loggedEvent `json:"events"`
	}
	getJSON(t, c, fmt.Sprintf("%s/game/%s/events?after=%d", ts.URL, created.GameID, 2), &tail)
	require.Len(t, tail.Events, 2)
	assert.Equal(t, 3, tail.Events[0].Seq)
}

func TestTeardown_RemovesSession(t *testing.T) {
	ts, c := newTestServer(t)
	created := startGame(t, c, ts.URL, newGameReq{Phrases: []string{"alpha"}, Seconds: 60})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/game/"+created.GameID, nil)
	require.NoError(t, err)
	res, err := c.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res2 := getJSON(t, c, ts.URL+"/game/"+created.GameID, nil)
	res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}

func TestTutorial_GatedGestures(t *testing.T) {
	ts, c := newTestServer(t)
	created := startGame(t, c, ts.URL, newGameReq{Variant: game.VariantTutorial})
	assert.Equal(t, game.VariantTutorial, created.Variant)
	assert.Equal(t, 0, created.SecondsRemaining) // tutorial has no countdown

	// Card 0 teaches tapping: a forward swipe is ignored.
	var out gestureRes
	postJSON(t, c, ts.URL+"/game/gesture", gestureReq{GameID: created.GameID, Gesture: game.GestureSwipeForward}, &out)
	assert.Empty(t, out.Events)
	assert.Equal(t, 0, out.State.PhraseIndex)
}

func TestAuth_SignupLoginMeStats(t *testing.T) {
	ts, c := newTestServer(t)

	var created map[string]any
	res := postJSON(t, c, ts.URL+"/auth/signup", signupReq{Username: "player_one", Password: "hunter2hunter2"}, &created)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "player_one", created["username"])

	var me authUser
	res = getJSON(t, c, ts.URL+"/auth/me", &me)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "player_one", me.Username)

	var stats map[string]any
	res = getJSON(t, c, ts.URL+"/stats/me", &stats)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 0, stats["gamesPlayed"])

	// Logout drops access to gated routes.
	postJSON(t, c, ts.URL+"/auth/logout", struct{}{}, nil)
	res = getJSON(t, c, ts.URL+"/auth/me", nil)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Login restores it.
	res = postJSON(t, c, ts.URL+"/auth/login", loginReq{Username: "player_one", Password: "hunter2hunter2"}, nil)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	res = getJSON(t, c, ts.URL+"/auth/me", nil)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAuth_RejectsBadCredentials(t *testing.T) {
	ts, c := newTestServer(t)

	res := postJSON(t, c, ts.URL+"/auth/signup", signupReq{Username: "x", Password: "short"}, nil)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	postJSON(t, c, ts.URL+"/auth/signup", signupReq{Username: "taken_name", Password: "hunter2hunter2"}, nil)
	res = postJSON(t, c, ts.URL+"/auth/signup", signupReq{Username: "taken_name", Password: "hunter2hunter2"}, nil)
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = postJSON(t, c, ts.URL+"/auth/login", loginReq{Username: "taken_name", Password: "wrongpassword"}, nil)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestDaily_ResumesInFlightRound(t *testing.T) {
	ts, c := newTestServer(t)

	var first newGameRes
	res := postJSON(t, c, ts.URL+"/daily/new", struct{}{}, &first)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, first.GameID)
	assert.Equal(t, 10, first.PhraseCount)

	// Same caller, same day: the live round is resumed, not restarted.
	var second newGameRes
	postJSON(t, c, ts.URL+"/daily/new", struct{}{}, &second)
	assert.Equal(t, first.GameID, second.GameID)
}

func TestDaily_LeaderboardShape(t *testing.T) {
	ts, c := newTestServer(t)

	var lb struct {
		Date    string           `json:"date"`
		Entries []map[string]any `json:"entries"`
	}
	res := getJSON(t, c, ts.URL+"/daily/leaderboard", &lb)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, lb.Date)
	assert.Empty(t, lb.Entries)
}
