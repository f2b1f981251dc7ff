package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FeedbackMode selects the tone of the generated retrospective.
type FeedbackMode string

const (
	FeedbackModeGentle FeedbackMode = "GENTLE"
	FeedbackModeNormal FeedbackMode = "NORMAL"
	FeedbackModeStrict FeedbackMode = "STRICT"
)

// Valid reports whether the mode is one of the known values.
func (m FeedbackMode) Valid() bool {
	switch m {
	case FeedbackModeGentle, FeedbackModeNormal, FeedbackModeStrict:
		return true
	}
	return false
}

// KPTElement is one element of a Keep/Problem/Try retrospective.
type KPTElement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Feedback is an AI-generated Keep/Problem/Try retrospective for one day's
// logged vs planned activity.
type Feedback struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TargetDate Date       `json:"target_date" db:"target_date"`
	Summary    string     `json:"summary" db:"summary"`
	Keep       KPTElement `json:"keep"`
	Problem    KPTElement `json:"problem"`
	Try        KPTElement `json:"try"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Validate checks the feedback's invariants.
func (f *Feedback) Validate() error {
	if strings.TrimSpace(f.Summary) == "" {
		return fmt.Errorf("%w: summary must not be blank", ErrValidation)
	}
	for _, el := range []KPTElement{f.Keep, f.Problem, f.Try} {
		if strings.TrimSpace(el.Title) == "" || strings.TrimSpace(el.Description) == "" {
			return fmt.Errorf("%w: KPT elements require a title and description", ErrValidation)
		}
	}
	return nil
}
