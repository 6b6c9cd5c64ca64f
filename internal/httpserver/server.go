// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the charades backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): POST /game/new, POST /game/gesture,
//     GET /game/{id}, GET /game/{id}/events, DELETE /game/{id}.
//   - Daily round endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//   - JWT + cookie handling, anonymous session cookie, user CRUD helpers.
//   - Database persistence of finished games and user stats.
//
// Notes:
//   - The engine core never touches the database: each live session gets a
//     sink that appends events to a per-session log, and only the final
//     game-end snapshot is persisted (best effort, non-fatal).
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token
//     is present; routes can still run for guests.

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/partyword/charades/apps/go-server/internal/daily"
	"github.com/partyword/charades/apps/go-server/internal/game"
	"github.com/partyword/charades/apps/go-server/internal/phrases"
	"github.com/partyword/charades/apps/go-server/internal/store"
)

// Default shape of a normal game; overridable via GAME_PHRASES/GAME_SECONDS.
const (
	defaultGamePhrases = 10
	defaultGameSeconds = 60
)

// Server bundles router, live-session store, and DB handle.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB

	mu   sync.Mutex              // guards meta
	meta map[string]*sessionMeta // per-session bookkeeping, keyed by game ID
}

// sessionMeta carries everything the HTTP layer tracks about a live
// session beyond the controller itself: who owns it, its event log, and
// whether it counts toward the daily round.
type sessionMeta struct {
	id        string
	userID    string // set when the creator was authenticated
	anonID    string // set when the creator was a guest
	dailyDate string // non-empty marks a daily-round session
	startedAt time.Time
	log       *eventLog
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB) *Server {
	s := &Server{
		r:     chi.NewRouter(),
		store: st,
		db:    db,
		meta:  make(map[string]*sessionMeta),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"charades-go","endpoints":["/health","POST /game/new","POST /game/gesture","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
	s.r.With(s.withOptionalAuth()).Post("/game/gesture", s.handleGesture)
	s.r.Get("/game/{id}", s.handleGameState)
	s.r.Get("/game/{id}/events", s.handleGameEvents)
	s.r.Delete("/game/{id}", s.handleTeardown)

	// Daily round — OPTIONAL AUTH (guests can play; one round per day)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: phrase catalog counts
	s.r.Get("/debug/phrases", func(w http.ResponseWriter, r *http.Request) {
		c, tut := phrases.Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"catalog": c, "tutorial": tut})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Variant game.Variant `json:"variant"` // "normal" | "tutorial" (default normal)
	Seconds int          `json:"seconds"` // optional duration override (testing)
	Phrases []string     `json:"phrases"` // optional fixed phrase list (testing)
}
type newGameRes struct {
	GameID           string       `json:"gameId"`
	Variant          game.Variant `json:"variant"`
	Phrase           string       `json:"phrase"`
	PhraseCount      int          `json:"phraseCount"`
	SecondsRemaining int          `json:"secondsRemaining"`
}

// handleNewGame creates a live session and persists a DB "owner" row
// (either user_id or anonymous_id) for history/stats.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	variant := req.Variant
	if variant == "" {
		variant = game.VariantNormal
	}
	if variant != game.VariantNormal && variant != game.VariantTutorial {
		http.Error(w, `{"error":"unknown_variant"}`, http.StatusBadRequest)
		return
	}

	phraseList := req.Phrases
	seconds := req.Seconds
	if variant == game.VariantTutorial {
		if len(phraseList) == 0 {
			phraseList = phrases.Tutorial()
		}
		seconds = 0
	} else {
		if len(phraseList) == 0 {
			phraseList = phrases.Random(envInt("GAME_PHRASES", defaultGamePhrases))
		}
		if seconds <= 0 {
			seconds = envInt("GAME_SECONDS", defaultGameSeconds)
		}
	}

	meta := &sessionMeta{startedAt: time.Now(), log: newEventLog()}
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		meta.userID = me.ID
	} else {
		meta.anonID = s.ensureAnonID(w, r)
	}

	ctrl, err := s.startSession(meta, game.Config{
		Phrases:     phraseList,
		Variant:     variant,
		GameSeconds: seconds,
	})
	if err != nil {
		if errors.Is(err, game.ErrNoPhrases) {
			http.Error(w, `{"error":"empty_phrase_list"}`, http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("create session")
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}

	if err := s.store.Save(r.Context(), ctrl); err != nil {
		ctrl.Teardown()
		log.Error().Err(err).Msg("save session")
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

// startSession builds a controller whose sink feeds the session's event
// log and finalizes persistence on game end, then registers its meta.
func (s *Server) startSession(meta *sessionMeta, cfg game.Config) (*game.Controller, error) {
	cfg.Sink = func(e game.Event) {
		meta.log.append(e)
		if e.Kind == game.EventGameEnd {
			s.finalizeGame(meta, e.Snapshot)
		}
	}
	ctrl, err := game.NewController(cfg)
	if err != nil {
		return nil, err
	}
	meta.id = ctrl.ID()

	s.mu.Lock()
	s.meta[meta.id] = meta
	s.mu.Unlock()
	return ctrl, nil
}

// insertGameRow persists the owner row for history/stats (best effort).
func (s *Server) insertGameRow(meta *sessionMeta, ctrl *game.Controller) {
	now := time.Now().UTC().Format(time.RFC3339)
	count := ctrl.Snapshot().PhraseCount
	var err error
	if meta.userID != "" {
		_, err = s.db.Exec(`INSERT INTO games (id, user_id, variant, phrase_count, score, status, started_at)
		                    VALUES (?,?,?,?,0,'playing',?)`, meta.id, meta.userID, string(ctrl.Variant()), count, now)
	} else {
		_, err = s.db.Exec(`INSERT INTO games (id, anonymous_id, variant, phrase_count, score, status, started_at)
		                    VALUES (?,?,?,?,0,'playing',?)`, meta.id, meta.anonID, string(ctrl.Variant()), count, now)
	}
	if err != nil {
		log.Warn().Err(err).Str("gameId", meta.id).Msg("insert game row")
	}
}

// finalizeGame persists the final snapshot when a session ends: the games
// row is closed out, user stats are bumped, and daily sessions record
// their result. Best effort; runs inside the engine's event dispatch, so
// it must not call back into the controller.
func (s *Server) finalizeGame(meta *sessionMeta, snap *game.Snapshot) {
	now := time.Now().UTC()

	ownerClause := `anonymous_id=?`
	ownerArg := any(meta.anonID)
	if meta.userID != "" {
		ownerClause = `user_id=?`
		ownerArg = any(meta.userID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		log.Warn().Err(err).Str("gameId", meta.id).Msg("finalize begin tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE games SET score=?, status='finished', finished_at=? WHERE id=? AND `+ownerClause,
		snap.Score, now.Format(time.RFC3339), meta.id, ownerArg); err != nil {
		log.Warn().Err(err).Str("gameId", meta.id).Msg("finish game row")
	}
	if meta.userID != "" {
		if err := s.bumpStats(tx, meta.userID, snap.Score); err != nil {
			log.Warn().Err(err).Str("user", meta.userID).Msg("bump stats")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Str("gameId", meta.id).Msg("finalize commit")
		return
	}

	if meta.dailyDate != "" {
		uid := meta.userID
		if uid == "" {
			uid = meta.anonID
		}
		elapsed := int(now.Sub(meta.startedAt).Milliseconds())
		err := daily.NewStore(s.db).InsertResult(context.Background(), daily.Result{
			UserID: uid, Date: meta.dailyDate, Score: snap.Score,
			PhraseCount: snap.PhraseCount, ElapsedMs: elapsed,
		})
		if err != nil {
			log.Warn().Err(err).Str("gameId", meta.id).Msg("insert daily result")
		}
	}
}

// gestureReq is the payload for POST /game/gesture.
type gestureReq struct {
	GameID  string       `json:"gameId"`
	Gesture game.Gesture `json:"gesture"`
}

// gestureRes returns the events the gesture produced synchronously plus
// the resulting state. Delayed events (post-score advance, countdown
// ticks) appear in GET /game/{id}/events.
type gestureRes struct {
	Events []loggedEvent `json:"events"`
	State  stateRes      `json:"state"`
}

// handleGesture feeds one gesture to a live session.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var req gestureReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if !req.Gesture.Valid() {
		http.Error(w, `{"error":"unknown_gesture"}`, http.StatusBadRequest)
		return
	}
	ctrl, meta, err := s.lookup(r.Context(), req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	before := meta.log.lastSeq()
	ctrl.HandleGesture(req.Gesture)

	_ = json.NewEncoder(w).Encode(gestureRes{
		Events: meta.log.since(before),
		State:  s.stateOf(ctrl),
	})
}

// stateRes is the read-only view of a live session.
type stateRes struct {
	GameID           string       `json:"gameId"`
	Variant          game.Variant `json:"variant"`
	Phrase           string       `json:"phrase"`
	PhraseIndex      int          `json:"phraseIndex"`
	Score            int          `json:"score"`
	PhraseCount      int          `json:"phraseCount"`
	SecondsRemaining int          `json:"secondsRemaining"`
	InputEnabled     bool         `json:"inputEnabled"`
	Ended            bool         `json:"ended"`
}

func (s *Server) stateOf(ctrl *game.Controller) stateRes {
	snap := ctrl.Snapshot()
	return stateRes{
		GameID:           ctrl.ID(),
		Variant:          ctrl.Variant(),
		Phrase:           ctrl.CurrentPhrase(),
		PhraseIndex:      ctrl.CurrentIndex(),
		Score:            snap.Score,
		PhraseCount:      snap.PhraseCount,
		SecondsRemaining: ctrl.SecondsRemaining(),
		InputEnabled:     ctrl.InputEnabled(),
		Ended:            ctrl.Ended(),
	}
}

// handleGameState returns the current state of a session.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	ctrl, _, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(s.stateOf(ctrl))
}

// handleGameEvents replays the session event log after the given cursor.
// Clients poll this to pick up delayed advances, ticks, and the game end.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	_, meta, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	after := 0
	if v := r.URL.Query().Get("after"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			after = n
		}
	}
	events := meta.log.since(after)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"events": events,
		"lastSeq": meta.log.lastSeq(),
	})
}

// handleTeardown discards a live session: timers are cancelled, the store
// entry dropped, and an unfinished games row marked abandoned.
func (s *Server) handleTeardown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctrl, _, err := s.lookup(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	finished := ctrl.Ended()
	ctrl.Teardown()
	_ = s.store.Delete(r.Context(), id)
	s.mu.Lock()
	delete(s.meta, id)
	s.mu.Unlock()

	if !finished {
		if _, err := s.db.Exec(`UPDATE games SET status='abandoned' WHERE id=? AND status='playing'`, id); err != nil {
			log.Warn().Err(err).Str("gameId", id).Msg("abandon game row")
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// lookup resolves a game ID to its controller and meta.
func (s *Server) lookup(ctx context.Context, id string) (*game.Controller, *sessionMeta, error) {
	if id == "" {
		return nil, nil, store.ErrNotFound
	}
	ctrl, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	meta := s.meta[id]
	s.mu.Unlock()
	if meta == nil {
		return nil, nil, store.ErrNotFound
	}
	return ctrl, meta, nil
}

// ------------------------------- AUTH --------------------------------------

// Request payloads for signup/login.
type signupReq struct{ Username, Password string }
type loginReq struct{ Username, Password string }

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /games/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	// Current user (gated)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(me)
	})

	// Stats (gated)
	s.r.With(s.requireAuth()).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, err := s.findUserByID(me.ID)
		if err != nil {
			http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             u.ID,
			"gamesPlayed":    u.GamesPlayed,
			"phrasesGuessed": u.PhrasesGuessed,
			"bestScore":      u.BestScore,
		})
	})

	// Recent games (gated)
	s.r.With(s.requireAuth()).Get("/games/mine", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		rows, err := s.db.Query(`SELECT id, variant, phrase_count, score, status, started_at, COALESCE(finished_at,'')
		                         FROM games WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, me.ID)
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type gameRow struct {
			ID          string `json:"id"`
			Variant     string `json:"variant"`
			PhraseCount int    `json:"phraseCount"`
			Score       int    `json:"score"`
			Status      string `json:"status"`
			StartedAt   string `json:"startedAt"`
			FinishedAt  string `json:"finishedAt,omitempty"`
		}
		out := []gameRow{}
		for rows.Next() {
			var gr gameRow
			if err := rows.Scan(&gr.ID, &gr.Variant, &gr.PhraseCount, &gr.Score, &gr.Status, &gr.StartedAt, &gr.FinishedAt); err == nil {
				out = append(out, gr)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
}

// handleSignup creates a new user, signs a JWT, sets auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.createUser(body.Username, body.Password)
	if err != nil {
		if err.Error() == "username taken" {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	// Attach any anonymous games to the new account
	s.claimAnonGames(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates user, sets cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.findUserByUsername(strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	s.claimAnonGames(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						if u, err := s.findUserByID(id); err == nil {
							ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: u.ID, Username: u.Username})
							r = r.WithContext(ctx)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const anonCookieName = "charades_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest games with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: func() http.SameSite {
			if os.Getenv("NODE_ENV") == "production" {
				return http.SameSiteNoneMode
			}
			return http.SameSiteLaxMode
		}(),
		Expires: time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// claimAnonGames transfers any anonymous games to a user account after auth.
func (s *Server) claimAnonGames(anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.Exec(`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
	}
}

// ------------------------ auth helpers & users -----------------------------

// userRow matches the users table shape.
type userRow struct {
	ID             string
	Username       string
	PasswordHash   string
	CreatedAt      time.Time
	GamesPlayed    int
	PhrasesGuessed int
	BestScore      int
}

// createUser validates input, checks uniqueness, hashes password, and inserts a new user.
func (s *Server) createUser(username, pw string) (*userRow, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, errors.New("username taken")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := genID()
	if _, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now); err != nil {
		return nil, err
	}
	return &userRow{ID: id, Username: username, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

// findUserByUsername/ID load a user row or return an error if missing.
func (s *Server) findUserByUsername(username string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, phrases_guessed, best_score
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}
func (s *Server) findUserByID(id string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, phrases_guessed, best_score
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow.
func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.PhrasesGuessed, &u.BestScore); err != nil {
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// normalizeUsername trims whitespace; adjust here if you want stricter rules.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// bumpStats increments games played, adds the round's score to the
// lifetime guessed count, and raises the best score if beaten (within tx).
func (s *Server) bumpStats(tx *sql.Tx, userID string, score int) error {
	var gp, guessed, best int
	row := tx.QueryRow(`SELECT games_played, phrases_guessed, best_score FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &guessed, &best); err != nil {
		return err
	}
	gp++
	guessed += score
	if score > best {
		best = score
	}
	_, err := tx.Exec(`UPDATE users SET games_played=?, phrases_guessed=?, best_score=? WHERE id=?`, gp, guessed, best, userID)
	return err
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry (JWT_EXPIRES_DAYS; default 14).
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev_secret_change_me"
	}
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "charades_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "charades_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "charades_token")); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			username, _ := claims["username"].(string)
			if id == "" || username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure user still exists
			if _, err := s.findUserByID(id); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt returns the integer value of k or def if unset/invalid.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
