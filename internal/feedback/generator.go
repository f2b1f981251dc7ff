package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
	"github.com/ryoyoshi29/TimeInventory/internal/timeline"
)

// Generator produces one KPT retrospective per day, persisting the result so
// repeated requests for the same date do not re-query the model.
type Generator struct {
	merger    *timeline.Merger
	feedbacks repository.FeedbackRepository
	client    *GeminiClient
	logger    *logrus.Logger
	loc       *time.Location
}

// NewGenerator creates a feedback generator.
func NewGenerator(
	merger *timeline.Merger,
	feedbacks repository.FeedbackRepository,
	client *GeminiClient,
	logger *logrus.Logger,
	loc *time.Location,
) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{
		merger:    merger,
		feedbacks: feedbacks,
		client:    client,
		logger:    logger,
		loc:       loc,
	}
}

// GetByDate returns the stored retrospective for a date, or nil when none
// has been generated yet.
func (g *Generator) GetByDate(ctx context.Context, date models.Date) (*models.Feedback, error) {
	return g.feedbacks.GetByDate(ctx, date)
}

// Generate builds the day's timeline, asks the model for a KPT retrospective
// in the given tone, and stores the result keyed by target date. Regenerating
// for the same date replaces the earlier retrospective.
func (g *Generator) Generate(ctx context.Context, date models.Date, mode models.FeedbackMode) (*models.Feedback, error) {
	if !mode.Valid() {
		mode = models.FeedbackModeNormal
	}

	view, err := g.merger.Day(ctx, date, g.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble timeline for %s: %w", date, err)
	}

	prompt := BuildPrompt(date, view, mode, g.loc)
	kpt, err := g.client.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	fb := &models.Feedback{
		ID:         uuid.New(),
		TargetDate: date,
		Summary:    kpt.Summary,
		Keep:       models.KPTElement{Title: kpt.Keep.Title, Description: kpt.Keep.Description},
		Problem:    models.KPTElement{Title: kpt.Problem.Title, Description: kpt.Problem.Description},
		Try:        models.KPTElement{Title: kpt.TryAction.Title, Description: kpt.TryAction.Description},
	}
	if err := fb.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	if err := g.feedbacks.Upsert(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to store feedback for %s: %w", date, err)
	}

	g.logger.WithField("target_date", date.String()).Info("Generated KPT feedback")
	return fb, nil
}
