package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onmodel/internal/domain"
)

// SettingsRepositoryPG implements domain.SettingsRepository using PostgreSQL.
type SettingsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a settings repository backed by PostgreSQL.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepositoryPG {
	return &SettingsRepositoryPG{pool: pool}
}

// Get returns the user's stored defaults, or the service-wide defaults when
// the user has never saved any.
func (r *SettingsRepositoryPG) Get(ctx context.Context, userID string) (domain.GenerationSettings, error) {
	query := `
SELECT settings
FROM user_settings
WHERE user_id = $1;
`
	var settingsJSON []byte
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&settingsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultSettings(), nil
		}
		return domain.GenerationSettings{}, err
	}
	var settings domain.GenerationSettings
	if err := json.Unmarshal(settingsJSON, &settings); err != nil {
		return domain.GenerationSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// Save upserts the user's default settings.
func (r *SettingsRepositoryPG) Save(ctx context.Context, userID string, settings domain.GenerationSettings) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	query := `
INSERT INTO user_settings (user_id, settings)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE
SET settings = EXCLUDED.settings,
    updated_at = NOW();
`
	_, err = r.pool.Exec(ctx, query, userID, settingsJSON)
	return err
}

var _ domain.SettingsRepository = (*SettingsRepositoryPG)(nil)
