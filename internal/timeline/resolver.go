package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/recurrence"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

// Resolver implements "this occurrence only" edit and delete semantics for
// recurring series. Instance edits are stored as exception records keyed by
// (series id, occurrence index); the series' rule and anchor stay untouched
// unless the whole series is edited.
type Resolver struct {
	plans      repository.PlannedEventRepository
	exceptions repository.ExceptionRepository
	logger     *logrus.Logger
	keys       keyedMutex
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(plans repository.PlannedEventRepository, exceptions repository.ExceptionRepository, logger *logrus.Logger) *Resolver {
	return &Resolver{plans: plans, exceptions: exceptions, logger: logger}
}

// EditOccurrence upserts an override for one occurrence of a recurring
// series. Re-applying the same patch is a no-op change. Writes to the same
// (series, index) key are serialized; writes to different keys are not.
func (r *Resolver) EditOccurrence(ctx context.Context, seriesID uuid.UUID, index int, patch models.EventPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.IsZero() {
		return fmt.Errorf("%w: patch changes nothing", models.ErrValidation)
	}
	if err := r.checkOccurrence(ctx, seriesID, index); err != nil {
		return err
	}

	unlock := r.keys.lock(occurrenceKey(seriesID, index))
	defer unlock()

	now := time.Now()
	rec := &models.ExceptionRecord{
		SeriesID:  seriesID,
		Index:     index,
		IsDeleted: false,
		Override:  &patch,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.exceptions.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store occurrence override: %w", err)
	}
	r.logger.WithFields(logrus.Fields{"series_id": seriesID, "index": index}).Debug("occurrence override stored")
	return nil
}

// DeleteOccurrence marks one occurrence of a recurring series as deleted,
// superseding any prior override for that occurrence.
func (r *Resolver) DeleteOccurrence(ctx context.Context, seriesID uuid.UUID, index int) error {
	if err := r.checkOccurrence(ctx, seriesID, index); err != nil {
		return err
	}

	unlock := r.keys.lock(occurrenceKey(seriesID, index))
	defer unlock()

	now := time.Now()
	rec := &models.ExceptionRecord{
		SeriesID:  seriesID,
		Index:     index,
		IsDeleted: true,
		Override:  nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.exceptions.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store occurrence deletion: %w", err)
	}
	r.logger.WithFields(logrus.Fields{"series_id": seriesID, "index": index}).Debug("occurrence deletion stored")
	return nil
}

// EditSeries applies a patch to the underlying planned event itself, moving
// the anchor window or changing its fields for every occurrence that has no
// override of its own.
func (r *Resolver) EditSeries(ctx context.Context, seriesID uuid.UUID, patch models.EventPatch) (*models.PlannedEvent, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	plan, err := r.plans.GetByID(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to load series %s: %w", seriesID, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, seriesID)
	}

	if patch.Activity != nil {
		plan.Activity = *patch.Activity
	}
	if patch.CategoryID != nil {
		plan.CategoryID = *patch.CategoryID
	}
	if patch.StartAt != nil {
		plan.StartAt = *patch.StartAt
	}
	if patch.EndAt != nil {
		plan.EndAt = *patch.EndAt
	}
	if patch.Memo != nil {
		plan.Memo = *patch.Memo
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	plan.UpdatedAt = time.Now()
	if err := r.plans.Upsert(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update series %s: %w", seriesID, err)
	}
	return plan, nil
}

// DeleteSeries removes the planned event and all exception records stored
// for it.
func (r *Resolver) DeleteSeries(ctx context.Context, seriesID uuid.UUID) error {
	plan, err := r.plans.GetByID(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("failed to load series %s: %w", seriesID, err)
	}
	if plan == nil {
		return fmt.Errorf("%w: %s", ErrSeriesNotFound, seriesID)
	}
	if err := r.exceptions.DeleteBySeries(ctx, seriesID); err != nil {
		return fmt.Errorf("failed to delete exceptions for series %s: %w", seriesID, err)
	}
	if err := r.plans.Delete(ctx, seriesID); err != nil {
		return fmt.Errorf("failed to delete series %s: %w", seriesID, err)
	}
	return nil
}

// checkOccurrence verifies that the series exists, is recurring, and can
// ever produce the given occurrence index.
func (r *Resolver) checkOccurrence(ctx context.Context, seriesID uuid.UUID, index int) error {
	plan, err := r.plans.GetByID(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("failed to load series %s: %w", seriesID, err)
	}
	if plan == nil {
		return fmt.Errorf("%w: %s", ErrSeriesNotFound, seriesID)
	}
	series, ok := recurrence.SeriesOf(plan)
	if !ok {
		return fmt.Errorf("%w: event %s is not recurring", ErrInvalidOccurrence, seriesID)
	}
	within, err := recurrence.WithinBounds(series, index, time.Local)
	if err != nil {
		return err
	}
	if !within {
		return fmt.Errorf("%w: series %s has no occurrence %d", ErrInvalidOccurrence, seriesID, index)
	}
	return nil
}

func occurrenceKey(seriesID uuid.UUID, index int) string {
	return fmt.Sprintf("%s/%d", seriesID, index)
}
