package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MinLogDuration is the shortest duration considered a meaningful record.
const MinLogDuration = time.Minute

// LogEvent is an actual, recorded block of time use. A nil EndAt means the
// timer for this event is still running; at most one such record may exist
// at any time.
type LogEvent struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	StartAt    time.Time  `json:"start_at" db:"start_at"`
	EndAt      *time.Time `json:"end_at,omitempty" db:"end_at"`
	Activity   string     `json:"activity" db:"activity"`
	CategoryID uuid.UUID  `json:"category_id" db:"category_id"`
	Memo       string     `json:"memo" db:"memo"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`

	// Category is populated by read-side queries that join the category row.
	Category *Category `json:"category,omitempty"`
}

// IsRunning reports whether the event's timer is still open.
func (e *LogEvent) IsRunning() bool {
	return e.EndAt == nil
}

// Duration returns the recorded duration, or the elapsed time up to now for
// a running event.
func (e *LogEvent) Duration(now time.Time) time.Duration {
	if e.EndAt != nil {
		return e.EndAt.Sub(e.StartAt)
	}
	return now.Sub(e.StartAt)
}

// HasValidDuration reports whether the event is at least MinLogDuration long.
func (e *LogEvent) HasValidDuration(now time.Time) bool {
	return e.Duration(now) >= MinLogDuration
}

// Validate checks the event's invariants.
func (e *LogEvent) Validate() error {
	if e.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: log event requires a category", ErrValidation)
	}
	if e.StartAt.IsZero() {
		return fmt.Errorf("%w: log event requires a start time", ErrValidation)
	}
	if e.EndAt != nil && !e.EndAt.After(e.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	return nil
}
