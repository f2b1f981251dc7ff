package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
)

var (
	// ErrTimerConflict is returned by InsertRunning when a running log event
	// already exists.
	ErrTimerConflict = errors.New("a running log event already exists")

	// ErrCategoryInUse is returned when deleting a category that is still
	// referenced by log or planned events.
	ErrCategoryInUse = errors.New("category is referenced by existing events")

	// ErrNotFound is returned by delete operations targeting a missing row.
	// Lookups return (nil, nil) for missing rows instead.
	ErrNotFound = errors.New("record not found")
)

// CategoryRepository defines the interface for category data operations.
type CategoryRepository interface {
	List(ctx context.Context) ([]*models.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Upsert(ctx context.Context, category *models.Category) error
	// Delete removes a category. It fails with ErrCategoryInUse while any
	// event still references it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// LogEventRepository defines the interface for log event data operations.
type LogEventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.LogEvent, error)
	// ListByRange returns log events whose start time falls in [from, to),
	// ordered by start time ascending.
	ListByRange(ctx context.Context, from, to time.Time) ([]*models.LogEvent, error)
	// GetRunning returns the log event with no end time, if any.
	GetRunning(ctx context.Context) (*models.LogEvent, error)
	// InsertRunning inserts a log event with no end time. It fails with
	// ErrTimerConflict when a running event already exists; the check and
	// insert are atomic.
	InsertRunning(ctx context.Context, event *models.LogEvent) error
	Upsert(ctx context.Context, event *models.LogEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PlannedEventRepository defines the interface for planned event data
// operations.
type PlannedEventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PlannedEvent, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.PlannedEvent, error)
	// ListForWindow returns the active planned events relevant to the
	// instant window [from, to): non-recurring events starting inside it,
	// plus every recurring event anchored before its end (their occurrences
	// may still intersect the window).
	ListForWindow(ctx context.Context, from, to time.Time) ([]*models.PlannedEvent, error)
	Upsert(ctx context.Context, event *models.PlannedEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExceptionRepository stores single-instance edits and deletes for recurring
// series, keyed by (series id, occurrence index).
type ExceptionRepository interface {
	ListBySeries(ctx context.Context, seriesID uuid.UUID) (map[int]*models.ExceptionRecord, error)
	Upsert(ctx context.Context, record *models.ExceptionRecord) error
	DeleteBySeries(ctx context.Context, seriesID uuid.UUID) error
}

// SettingsRepository is the key-value store holding application flags.
type SettingsRepository interface {
	IsFirstLaunch(ctx context.Context) (bool, error)
	MarkInitialized(ctx context.Context) error
}

// FeedbackRepository stores generated retrospectives, one per target date.
type FeedbackRepository interface {
	GetByDate(ctx context.Context, date models.Date) (*models.Feedback, error)
	Upsert(ctx context.Context, feedback *models.Feedback) error
}
