package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

type logEventRepository struct {
	db *sql.DB
}

// NewLogEventRepository creates a new log event repository.
func NewLogEventRepository(db *sql.DB) repository.LogEventRepository {
	return &logEventRepository{db: db}
}

const logEventColumns = `id, start_at, end_at, activity, category_id, memo, created_at, updated_at`

func scanLogEvent(row interface{ Scan(...any) error }) (*models.LogEvent, error) {
	event := &models.LogEvent{}
	err := row.Scan(
		&event.ID,
		&event.StartAt,
		&event.EndAt,
		&event.Activity,
		&event.CategoryID,
		&event.Memo,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *logEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LogEvent, error) {
	query := `SELECT ` + logEventColumns + ` FROM log_events WHERE id = $1`

	event, err := scanLogEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get log event: %w", err)
	}
	return event, nil
}

func (r *logEventRepository) ListByRange(ctx context.Context, from, to time.Time) ([]*models.LogEvent, error) {
	query := `
		SELECT ` + logEventColumns + `
		FROM log_events
		WHERE start_at >= $1 AND start_at < $2
		ORDER BY start_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query log events: %w", err)
	}
	defer rows.Close()

	var events []*models.LogEvent
	for rows.Next() {
		event, err := scanLogEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *logEventRepository) GetRunning(ctx context.Context) (*models.LogEvent, error) {
	query := `SELECT ` + logEventColumns + ` FROM log_events WHERE end_at IS NULL`

	event, err := scanLogEvent(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get running log event: %w", err)
	}
	return event, nil
}

// InsertRunning relies on the partial unique index over open rows
// (end_at IS NULL), so two concurrent inserts cannot both succeed.
func (r *logEventRepository) InsertRunning(ctx context.Context, event *models.LogEvent) error {
	query := `
		INSERT INTO log_events (id, start_at, end_at, activity, category_id, memo, created_at, updated_at)
		VALUES ($1, $2, NULL, $3, $4, $5, $6, $7)`

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.StartAt,
		event.Activity,
		event.CategoryID,
		event.Memo,
		event.CreatedAt,
		event.UpdatedAt,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "log_events_single_running_idx" {
			return repository.ErrTimerConflict
		}
		return fmt.Errorf("failed to insert running log event: %w", err)
	}

	return nil
}

func (r *logEventRepository) Upsert(ctx context.Context, event *models.LogEvent) error {
	query := `
		INSERT INTO log_events (id, start_at, end_at, activity, category_id, memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at,
		    activity = EXCLUDED.activity, category_id = EXCLUDED.category_id,
		    memo = EXCLUDED.memo, updated_at = EXCLUDED.updated_at`

	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.StartAt,
		event.EndAt,
		event.Activity,
		event.CategoryID,
		event.Memo,
		event.CreatedAt,
		event.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert log event: %w", err)
	}

	return nil
}

func (r *logEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM log_events WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete log event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
