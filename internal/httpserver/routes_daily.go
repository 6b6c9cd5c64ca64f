// apps/go-server/internal/httpserver/routes_daily.go
//
// Daily round endpoints.
// Responsibilities:
//   - POST /daily/new: start (or resume) today's round. Everyone gets the
//     same phrase set, derived from the UTC date; one finished round per
//     identity per day.
//   - GET  /daily/leaderboard: today's standings.
//
// Gestures for a daily session go through the regular /game/gesture
// endpoint; the session's meta marks it as daily so the final score is
// recorded in daily_results when the round ends.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/partyword/charades/apps/go-server/internal/daily"
	"github.com/partyword/charades/apps/go-server/internal/game"
	"github.com/partyword/charades/apps/go-server/internal/phrases"
)

const dailyPhraseCount = 10

// mountDaily registers the daily round routes on r (already wrapped with
// optional auth by the caller).
func (s *Server) mountDaily(r chi.Router) {
	r.Post("/daily/new", s.handleDailyNew)
	r.Get("/daily/leaderboard", s.handleDailyLeaderboard)
}

// dailyIdentity resolves the caller to a stable ID (user or anon cookie).
func (s *Server) dailyIdentity(w http.ResponseWriter, r *http.Request) (uid string, isUser bool) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, true
	}
	return s.ensureAnonID(w, r), false
}

// handleDailyNew starts today's round for the caller, or reports that it
// was already played. An in-flight round is resumed rather than restarted.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	uid, isUser := s.dailyIdentity(w, r)
	date := daily.DateKey(time.Now())

	ds := daily.NewStore(s.db)
	played, err := ds.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		log.Error().Err(err).Msg("daily lookup")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if played {
		_ = json.NewEncoder(w).Encode(map[string]any{"played": true, "date": date})
		return
	}

	// Resume a round the caller already started today.
	if live := s.liveDailySession(uid, date); live != "" {
		if ctrl, _, err := s.lookup(r.Context(), live); err == nil && !ctrl.Ended() {
			_ = json.NewEncoder(w).Encode(newGameRes{
				GameID:           ctrl.ID(),
				Variant:          ctrl.Variant(),
				Phrase:           ctrl.CurrentPhrase(),
				PhraseCount:      ctrl.Snapshot().PhraseCount,
				SecondsRemaining: ctrl.SecondsRemaining(),
			})
			return
		}
	}

	seed := daily.SetSeed(time.Now(), getEnv("DAILY_SALT", "charades-daily"))
	list := phrases.DailySet(seed, dailyPhraseCount)

	meta := &sessionMeta{startedAt: time.Now(), dailyDate: date, log: newEventLog()}
	if isUser {
		meta.userID = uid
	} else {
		meta.anonID = uid
	}

	ctrl, err := s.startSession(meta, game.Config{
		Phrases:     list,
		Variant:     game.VariantNormal,
		GameSeconds: envInt("GAME_SECONDS", defaultGameSeconds),
	})
	if err != nil {
		log.Error().Err(err).Msg("create daily session")
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}
	if err := s.store.Save(r.Context(), ctrl); err != nil {
		ctrl.Teardown()
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	s.insertGameRow(meta, ctrl)

	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID:           ctrl.ID(),
		Variant:          ctrl.Variant(),
		Phrase:           ctrl.CurrentPhrase(),
		PhraseCount:      ctrl.Snapshot().PhraseCount,
		SecondsRemaining: ctrl.SecondsRemaining(),
	})
}

// liveDailySession finds an unfinished daily session for uid on date.
func (s *Server) liveDailySession(uid, date string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.meta {
		if m.dailyDate != date {
			continue
		}
		if m.userID == uid || m.anonID == uid {
			return id
		}
	}
	return ""
}

// handleDailyLeaderboard returns today's standings (score desc, time asc).
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := daily.DateKey(time.Now())
	rows, err := daily.NewStore(s.db).Leaderboard(r.Context(), date, envInt("DAILY_LB_LIMIT", 20))
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}

	type lbEntry struct {
		Rank      int    `json:"rank"`
		Name      string `json:"name"`
		Score     int    `json:"score"`
		ElapsedMs int    `json:"elapsedMs"`
	}
	out := []lbEntry{}
	for i, row := range rows {
		name := "guest"
		var uname string
		if err := s.db.QueryRow(`SELECT username FROM users WHERE id=?`, row.UserID).Scan(&uname); err == nil {
			name = uname
		}
		out = append(out, lbEntry{Rank: i + 1, Name: name, Score: row.Score, ElapsedMs: row.ElapsedMs})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"date": date, "entries": out})
}
