package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

type plannedEventRepository struct {
	db *sql.DB
}

// NewPlannedEventRepository creates a new planned event repository.
func NewPlannedEventRepository(db *sql.DB) repository.PlannedEventRepository {
	return &plannedEventRepository{db: db}
}

const plannedEventColumns = `id, activity, category_id, start_at, end_at, all_day,
	recurrence_rule, memo, external_calendar_id, source, is_active, created_at, updated_at`

func scanPlannedEvent(row interface{ Scan(...any) error }) (*models.PlannedEvent, error) {
	event := &models.PlannedEvent{}
	var rule []byte
	err := row.Scan(
		&event.ID,
		&event.Activity,
		&event.CategoryID,
		&event.StartAt,
		&event.EndAt,
		&event.AllDay,
		&rule,
		&event.Memo,
		&event.ExternalCalendarID,
		&event.Source,
		&event.IsActive,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rule) > 0 {
		event.Recurrence = &models.RecurrenceRule{}
		if err := json.Unmarshal(rule, event.Recurrence); err != nil {
			return nil, fmt.Errorf("failed to decode recurrence rule for %s: %w", event.ID, err)
		}
	}
	return event, nil
}

func marshalRule(rule *models.RecurrenceRule) (any, error) {
	if rule == nil {
		return nil, nil
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence rule: %w", err)
	}
	return data, nil
}

func (r *plannedEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PlannedEvent, error) {
	query := `SELECT ` + plannedEventColumns + ` FROM planned_events WHERE id = $1`

	event, err := scanPlannedEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get planned event: %w", err)
	}
	return event, nil
}

func (r *plannedEventRepository) GetByExternalID(ctx context.Context, externalID string) (*models.PlannedEvent, error) {
	query := `SELECT ` + plannedEventColumns + ` FROM planned_events WHERE external_calendar_id = $1`

	event, err := scanPlannedEvent(r.db.QueryRowContext(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get planned event by external id: %w", err)
	}
	return event, nil
}

func (r *plannedEventRepository) ListForWindow(ctx context.Context, from, to time.Time) ([]*models.PlannedEvent, error) {
	// Non-recurring events must start inside the window; recurring events
	// only need their anchor before the window's end, since the rule may
	// still produce occurrences inside it.
	query := `
		SELECT ` + plannedEventColumns + `
		FROM planned_events
		WHERE is_active
		  AND (
		    (recurrence_rule IS NULL AND start_at >= $1 AND start_at < $2)
		    OR (recurrence_rule IS NOT NULL AND start_at < $2)
		  )
		ORDER BY start_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned events: %w", err)
	}
	defer rows.Close()

	var events []*models.PlannedEvent
	for rows.Next() {
		event, err := scanPlannedEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planned event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *plannedEventRepository) Upsert(ctx context.Context, event *models.PlannedEvent) error {
	query := `
		INSERT INTO planned_events (id, activity, category_id, start_at, end_at, all_day,
			recurrence_rule, memo, external_calendar_id, source, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE
		SET activity = EXCLUDED.activity, category_id = EXCLUDED.category_id,
		    start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at,
		    all_day = EXCLUDED.all_day, recurrence_rule = EXCLUDED.recurrence_rule,
		    memo = EXCLUDED.memo, external_calendar_id = EXCLUDED.external_calendar_id,
		    source = EXCLUDED.source, is_active = EXCLUDED.is_active,
		    updated_at = EXCLUDED.updated_at`

	rule, err := marshalRule(event.Recurrence)
	if err != nil {
		return err
	}

	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Activity,
		event.CategoryID,
		event.StartAt,
		event.EndAt,
		event.AllDay,
		rule,
		event.Memo,
		event.ExternalCalendarID,
		event.Source,
		event.IsActive,
		event.CreatedAt,
		event.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert planned event: %w", err)
	}

	return nil
}

func (r *plannedEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM planned_events WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete planned event: %w", err)
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
