package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

type exceptionRepository struct {
	db *sql.DB
}

// NewExceptionRepository creates a new occurrence exception repository.
func NewExceptionRepository(db *sql.DB) repository.ExceptionRepository {
	return &exceptionRepository{db: db}
}

func (r *exceptionRepository) ListBySeries(ctx context.Context, seriesID uuid.UUID) (map[int]*models.ExceptionRecord, error) {
	query := `
		SELECT series_id, occurrence_index, is_deleted, override, created_at, updated_at
		FROM occurrence_exceptions
		WHERE series_id = $1`

	rows, err := r.db.QueryContext(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to query occurrence exceptions: %w", err)
	}
	defer rows.Close()

	records := make(map[int]*models.ExceptionRecord)
	for rows.Next() {
		record := &models.ExceptionRecord{}
		var override []byte
		if err := rows.Scan(
			&record.SeriesID,
			&record.Index,
			&record.IsDeleted,
			&override,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan occurrence exception: %w", err)
		}
		if len(override) > 0 {
			record.Override = &models.EventPatch{}
			if err := json.Unmarshal(override, record.Override); err != nil {
				return nil, fmt.Errorf("failed to decode override for series %s index %d: %w",
					seriesID, record.Index, err)
			}
		}
		records[record.Index] = record
	}

	return records, rows.Err()
}

func (r *exceptionRepository) Upsert(ctx context.Context, record *models.ExceptionRecord) error {
	query := `
		INSERT INTO occurrence_exceptions (series_id, occurrence_index, is_deleted, override, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (series_id, occurrence_index) DO UPDATE
		SET is_deleted = EXCLUDED.is_deleted, override = EXCLUDED.override,
		    updated_at = EXCLUDED.updated_at`

	var override any
	if record.Override != nil {
		data, err := json.Marshal(record.Override)
		if err != nil {
			return fmt.Errorf("failed to encode override: %w", err)
		}
		override = data
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		record.SeriesID,
		record.Index,
		record.IsDeleted,
		override,
		record.CreatedAt,
		record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert occurrence exception: %w", err)
	}

	return nil
}

func (r *exceptionRepository) DeleteBySeries(ctx context.Context, seriesID uuid.UUID) error {
	query := `DELETE FROM occurrence_exceptions WHERE series_id = $1`

	if _, err := r.db.ExecContext(ctx, query, seriesID); err != nil {
		return fmt.Errorf("failed to delete occurrence exceptions: %w", err)
	}
	return nil
}
