package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Occurrence is one expanded instance of a recurring planned event. It is
// derived, never persisted; only exception records (edits/deletes of a
// single instance) are stored.
type Occurrence struct {
	SeriesID uuid.UUID `json:"series_id"`
	// Index is zero-based from the anchor occurrence and is derived purely
	// from the anchor and rule, so it stays stable across regenerations.
	Index   int       `json:"index"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// EventPatch is a partial update to one occurrence of a series (or, via a
// series edit, to the series anchor itself). Nil fields are left untouched.
type EventPatch struct {
	Activity   *string    `json:"activity,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	StartAt    *time.Time `json:"start_at,omitempty"`
	EndAt      *time.Time `json:"end_at,omitempty"`
	Memo       *string    `json:"memo,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p *EventPatch) IsZero() bool {
	return p.Activity == nil && p.CategoryID == nil && p.StartAt == nil && p.EndAt == nil && p.Memo == nil
}

// Validate checks the patch's invariants.
func (p *EventPatch) Validate() error {
	if p.Activity != nil && strings.TrimSpace(*p.Activity) == "" {
		return fmt.Errorf("%w: activity must not be blank", ErrValidation)
	}
	if p.CategoryID != nil && *p.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: category id must not be empty", ErrValidation)
	}
	if p.StartAt != nil && p.EndAt != nil && !p.EndAt.After(*p.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	return nil
}

// ExceptionRecord stores a single-instance edit or delete for a recurring
// series, keyed by (SeriesID, Index). Regenerating the series never touches
// these rows, so instance edits survive rule re-expansion.
type ExceptionRecord struct {
	SeriesID  uuid.UUID   `json:"series_id" db:"series_id"`
	Index     int         `json:"index" db:"occurrence_index"`
	IsDeleted bool        `json:"is_deleted" db:"is_deleted"`
	Override  *EventPatch `json:"override,omitempty" db:"override"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
