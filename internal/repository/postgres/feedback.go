package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

type feedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *sql.DB) repository.FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) GetByDate(ctx context.Context, date models.Date) (*models.Feedback, error) {
	query := `
		SELECT id, target_date, summary,
		       keep_title, keep_description,
		       problem_title, problem_description,
		       try_title, try_description,
		       created_at
		FROM ai_feedbacks
		WHERE target_date = $1`

	feedback := &models.Feedback{}
	var target time.Time
	err := r.db.QueryRowContext(ctx, query, date.String()).Scan(
		&feedback.ID,
		&target,
		&feedback.Summary,
		&feedback.Keep.Title,
		&feedback.Keep.Description,
		&feedback.Problem.Title,
		&feedback.Problem.Description,
		&feedback.Try.Title,
		&feedback.Try.Description,
		&feedback.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	feedback.TargetDate = models.DateOf(target)
	return feedback, nil
}

func (r *feedbackRepository) Upsert(ctx context.Context, feedback *models.Feedback) error {
	query := `
		INSERT INTO ai_feedbacks (id, target_date, summary,
			keep_title, keep_description,
			problem_title, problem_description,
			try_title, try_description,
			created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (target_date) DO UPDATE
		SET id = EXCLUDED.id, summary = EXCLUDED.summary,
		    keep_title = EXCLUDED.keep_title, keep_description = EXCLUDED.keep_description,
		    problem_title = EXCLUDED.problem_title, problem_description = EXCLUDED.problem_description,
		    try_title = EXCLUDED.try_title, try_description = EXCLUDED.try_description,
		    created_at = EXCLUDED.created_at`

	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now()
	}

	if _, err := r.db.ExecContext(ctx, query,
		feedback.ID,
		feedback.TargetDate.String(),
		feedback.Summary,
		feedback.Keep.Title,
		feedback.Keep.Description,
		feedback.Problem.Title,
		feedback.Problem.Description,
		feedback.Try.Title,
		feedback.Try.Description,
		feedback.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert feedback: %w", err)
	}

	return nil
}
