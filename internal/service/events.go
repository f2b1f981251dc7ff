package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

// GetLogEvent returns a log event by ID, or ErrLogEventNotFound.
func (s *Service) GetLogEvent(ctx context.Context, id uuid.UUID) (*models.LogEvent, error) {
	event, err := s.Logs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup log event %s: %w", id, err)
	}
	if event == nil {
		return nil, ErrLogEventNotFound
	}
	return event, nil
}

// ListLogEvents returns log events starting in [from, to).
func (s *Service) ListLogEvents(ctx context.Context, from, to time.Time) ([]*models.LogEvent, error) {
	return s.Logs.ListByRange(ctx, from, to)
}

// SaveLogEvent validates and persists a completed log event.
func (s *Service) SaveLogEvent(ctx context.Context, event *models.LogEvent) error {
	event.Activity = strings.TrimSpace(event.Activity)
	if err := event.Validate(); err != nil {
		return err
	}
	if _, err := s.GetCategory(ctx, event.CategoryID); err != nil {
		return err
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := s.Logs.Upsert(ctx, event); err != nil {
		return fmt.Errorf("failed to save log event %s: %w", event.ID, err)
	}
	return nil
}

// DeleteLogEvent removes a log event.
func (s *Service) DeleteLogEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.Logs.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return ErrLogEventNotFound
		}
		return err
	}
	return nil
}

// GetPlannedEvent returns a planned event by ID, or ErrPlannedEventNotFound.
func (s *Service) GetPlannedEvent(ctx context.Context, id uuid.UUID) (*models.PlannedEvent, error) {
	event, err := s.Plans.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup planned event %s: %w", id, err)
	}
	if event == nil {
		return nil, ErrPlannedEventNotFound
	}
	return event, nil
}

// SavePlannedEvent validates and persists a planned event or recurring
// series definition.
func (s *Service) SavePlannedEvent(ctx context.Context, event *models.PlannedEvent) error {
	event.Activity = strings.TrimSpace(event.Activity)
	if event.Source == "" {
		event.Source = models.SourceManual
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if _, err := s.GetCategory(ctx, event.CategoryID); err != nil {
		return err
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
		event.IsActive = true
	}
	if err := s.Plans.Upsert(ctx, event); err != nil {
		return fmt.Errorf("failed to save planned event %s: %w", event.ID, err)
	}
	return nil
}
