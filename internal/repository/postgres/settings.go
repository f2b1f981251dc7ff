package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

const keyFirstLaunch = "is_first_launch"

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) IsFirstLaunch(ctx context.Context) (bool, error) {
	query := `SELECT value FROM settings WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, keyFirstLaunch).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No flag stored yet means the app has never initialized.
			return true, nil
		}
		return false, fmt.Errorf("failed to read first-launch flag: %w", err)
	}

	return value != "false", nil
}

func (r *settingsRepository) MarkInitialized(ctx context.Context) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, 'false')
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	if _, err := r.db.ExecContext(ctx, query, keyFirstLaunch); err != nil {
		return fmt.Errorf("failed to mark initialized: %w", err)
	}
	return nil
}
