package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence"
)

const (
	settingAccessToken   = "access_token"
	settingProgramConfig = "program_config"
)

// SettingsRepository stores the values refreshed by the data-sync job in loyalty_settings.
type SettingsRepository struct {
	q persistence.Executor
}

var _ application.SettingsStore = (*SettingsRepository)(nil)

func NewSettingsRepository(db *persistence.DB) *SettingsRepository {
	return &SettingsRepository{q: db.Pool}
}

// AccessToken returns an empty string when no token has been cached yet.
func (r *SettingsRepository) AccessToken(ctx context.Context) (string, error) {
	value, found, err := r.get(ctx, settingAccessToken)
	if err != nil || !found {
		return "", err
	}
	return value, nil
}

func (r *SettingsRepository) SaveAccessToken(ctx context.Context, token string) error {
	return r.put(ctx, settingAccessToken, token)
}

// ProgramConfig returns nil when the program configuration has not been synced yet.
func (r *SettingsRepository) ProgramConfig(ctx context.Context) (*domain.ProgramConfig, error) {
	value, found, err := r.get(ctx, settingProgramConfig)
	if err != nil || !found {
		return nil, err
	}

	var cfg domain.ProgramConfig
	if err := json.Unmarshal([]byte(value), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode program config: %w", err)
	}
	return &cfg, nil
}

func (r *SettingsRepository) SaveProgramConfig(ctx context.Context, cfg *domain.ProgramConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode program config: %w", err)
	}
	return r.put(ctx, settingProgramConfig, string(data))
}

func (r *SettingsRepository) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.q.QueryRow(ctx, `SELECT value FROM loyalty_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if persistence.IsNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SettingsRepository) put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO loyalty_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}
