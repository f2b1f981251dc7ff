package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

// StartTimer begins recording a new log event with no end time. At most one
// timer may run at a time; the repository enforces the uniqueness atomically,
// so concurrent starts resolve to exactly one winner.
func (s *Service) StartTimer(ctx context.Context, activity string, categoryID uuid.UUID, memo string) (*models.LogEvent, error) {
	activity = strings.TrimSpace(activity)

	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	event := &models.LogEvent{
		ID:         uuid.New(),
		StartAt:    s.now(),
		Activity:   activity,
		CategoryID: categoryID,
		Memo:       memo,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.Logs.InsertRunning(ctx, event); err != nil {
		if err == repository.ErrTimerConflict {
			return nil, ErrTimerRunning
		}
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	s.logger.WithField("log_event_id", event.ID).Info("Timer started")
	return event, nil
}

// StopTimer closes the running log event at the current time. Stopping when
// nothing runs returns ErrNoRunningTimer. Events shorter than
// models.MinLogDuration are discarded instead of saved.
func (s *Service) StopTimer(ctx context.Context) (*models.LogEvent, error) {
	running, err := s.Logs.GetRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup running timer: %w", err)
	}
	if running == nil {
		return nil, ErrNoRunningTimer
	}

	now := s.now()
	if now.Sub(running.StartAt) < models.MinLogDuration {
		if err := s.Logs.Delete(ctx, running.ID); err != nil {
			return nil, fmt.Errorf("failed to discard short log event %s: %w", running.ID, err)
		}
		s.logger.WithField("log_event_id", running.ID).Info("Discarded log event shorter than minimum duration")
		return nil, nil
	}

	running.EndAt = &now
	if err := s.Logs.Upsert(ctx, running); err != nil {
		return nil, fmt.Errorf("failed to stop timer %s: %w", running.ID, err)
	}

	s.logger.WithField("log_event_id", running.ID).Info("Timer stopped")
	return running, nil
}

// ActiveTimer returns the currently running log event, or nil when none runs.
func (s *Service) ActiveTimer(ctx context.Context) (*models.LogEvent, error) {
	return s.Logs.GetRunning(ctx)
}
