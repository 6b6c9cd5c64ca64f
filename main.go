// apps/go-server/main.go
//
// Entrypoint for the charades backend.
// Responsibilities:
//   - Load .env configuration and set the zerolog level.
//   - Initialize the phrase catalog (embedded defaults or file overrides).
//   - Open SQLite and run migrations.
//   - Wire the in-memory session store into the HTTP server and serve.

package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/partyword/charades/apps/go-server/internal/httpserver"
	"github.com/partyword/charades/apps/go-server/internal/phrases"
	"github.com/partyword/charades/apps/go-server/internal/store"
)

func main() {
	// .env is optional; real deployments use process env.
	_ = godotenv.Load()

	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := phrases.Init(); err != nil {
		log.Fatal().Err(err).Msg("load phrase catalog")
	}
	catalog, tutorial := phrases.Stats()
	log.Info().Int("catalog", catalog).Int("tutorial", tutorial).Msg("phrases loaded")

	db, err := openDB(getEnv("DB_PATH", "./data/charades.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	srv := httpserver.New(store.NewMemoryStore(), db)

	addr := ":" + getEnv("PORT", "5175")
	log.Info().Str("addr", addr).Msg("charades server listening")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
