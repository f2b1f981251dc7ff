package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Frequency is how often a recurrence rule repeats.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// PlannedEventSource records where a planned event came from.
type PlannedEventSource string

const (
	SourceManual         PlannedEventSource = "MANUAL"
	SourceAppleCalendar  PlannedEventSource = "APPLE_CALENDAR"
	SourceGoogleCalendar PlannedEventSource = "GOOGLE_CALENDAR"
)

// RecurrenceRule describes how a planned event repeats. It is embedded in
// exactly one PlannedEvent and serialized into the parent's storage row
// rather than having a row of its own.
//
// At most one of EndDate and Count is expected to bound the recurrence; when
// both are absent the rule is unbounded. DaysOfWeek is meaningful only for
// WEEKLY rules.
type RecurrenceRule struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	EndDate    *Date          `json:"end_date,omitempty"`
	Count      *int           `json:"count,omitempty"`
}

// Validate checks the rule's invariants.
func (r *RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrValidation, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", ErrValidation, r.Interval)
	}
	if r.Count != nil && *r.Count < 1 {
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrValidation, *r.Count)
	}
	for _, wd := range r.DaysOfWeek {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: invalid weekday %d", ErrValidation, wd)
		}
	}
	return nil
}

// PlannedEvent is a scheduled block of time. StartAt/EndAt define the first
// occurrence's absolute window; when Recurrence is set, later occurrences
// are derived from the rule rather than stored.
type PlannedEvent struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	Activity           string             `json:"activity" db:"activity"`
	CategoryID         uuid.UUID          `json:"category_id" db:"category_id"`
	StartAt            time.Time          `json:"start_at" db:"start_at"`
	EndAt              time.Time          `json:"end_at" db:"end_at"`
	AllDay             bool               `json:"all_day" db:"all_day"`
	Recurrence         *RecurrenceRule    `json:"recurrence,omitempty" db:"recurrence_rule"`
	Memo               string             `json:"memo" db:"memo"`
	ExternalCalendarID *string            `json:"external_calendar_id,omitempty" db:"external_calendar_id"`
	Source             PlannedEventSource `json:"source" db:"source"`
	IsActive           bool               `json:"is_active" db:"is_active"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`

	// Category is populated by read-side queries that join the category row.
	Category *Category `json:"category,omitempty"`
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e *PlannedEvent) IsRecurring() bool {
	return e.Recurrence != nil
}

// Duration returns the length of one occurrence.
func (e *PlannedEvent) Duration() time.Duration {
	return e.EndAt.Sub(e.StartAt)
}

// Validate checks the event's invariants.
func (e *PlannedEvent) Validate() error {
	if strings.TrimSpace(e.Activity) == "" {
		return fmt.Errorf("%w: activity must not be blank", ErrValidation)
	}
	if e.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: planned event requires a category", ErrValidation)
	}
	if !e.EndAt.After(e.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	switch e.Source {
	case SourceManual, SourceAppleCalendar, SourceGoogleCalendar:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrValidation, e.Source)
	}
	if e.Recurrence != nil {
		if err := e.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}
