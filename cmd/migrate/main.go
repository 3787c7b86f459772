package main

import (
	"database/sql"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"onmodel/internal/infra"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
    id UUID PRIMARY KEY,
    seq BIGINT GENERATED ALWAYS AS IDENTITY,
    user_id TEXT NOT NULL,
    source_name TEXT NOT NULL,
    source_url TEXT NOT NULL,
    settings JSONB NOT NULL,
    generated_images JSONB NOT NULL DEFAULT '[]'::jsonb,
    cover_image_key TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_listings_user_created
    ON listings (user_id, created_at DESC, seq ASC);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id TEXT PRIMARY KEY,
    settings JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func main() {
	_ = godotenv.Load(".env", ".env.local")

	logger := infra.NewLogger(os.Getenv("APP_ENV"))

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal().Msg("migrate: DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate: open database failed")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("migrate: database unreachable")
	}

	if _, err := db.Exec(schema); err != nil {
		logger.Fatal().Err(err).Msg("migrate: apply schema failed")
	}
	logger.Info().Msg("migrate: schema up to date")
}
