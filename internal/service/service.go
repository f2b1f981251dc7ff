package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	logger     *logrus.Logger
	now        func() time.Time
	Categories repository.CategoryRepository
	Logs       repository.LogEventRepository
	Plans      repository.PlannedEventRepository
	Exceptions repository.ExceptionRepository
	Settings   repository.SettingsRepository
	Feedbacks  repository.FeedbackRepository
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger,
	categories repository.CategoryRepository,
	logs repository.LogEventRepository,
	plans repository.PlannedEventRepository,
	exceptions repository.ExceptionRepository,
	settings repository.SettingsRepository,
	feedbacks repository.FeedbackRepository,
) *Service {
	return &Service{
		logger: logger, now: time.Now,
		Categories: categories, Logs: logs, Plans: plans,
		Exceptions: exceptions, Settings: settings, Feedbacks: feedbacks,
	}
}

// defaultCategories are seeded on first launch, in display order.
var defaultCategories = []struct {
	name  string
	color uint32
}{
	{"Work", 0xFF2196F3},
	{"Study", 0xFF4CAF50},
	{"Exercise", 0xFFFF9800},
	{"Hobby", 0xFF9C27B0},
	{"Sleep", 0xFF607D8B},
	{"Meal", 0xFFFF5722},
	{"Other", 0xFF9E9E9E},
}

// EnsureDefaultCategories seeds the default category set the first time the
// application starts, then flips the first-launch flag so later restarts do
// not re-seed categories the user may have renamed or deleted.
func (s *Service) EnsureDefaultCategories(ctx context.Context) error {
	first, err := s.Settings.IsFirstLaunch(ctx)
	if err != nil {
		return fmt.Errorf("failed to read first-launch flag: %w", err)
	}
	if !first {
		return nil
	}

	for i, def := range defaultCategories {
		category := &models.Category{
			ID:        uuid.New(),
			Name:      def.name,
			ColorARGB: def.color,
			SortOrder: i,
		}
		if err := s.Categories.Upsert(ctx, category); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", def.name, err)
		}
	}

	if err := s.Settings.MarkInitialized(ctx); err != nil {
		return fmt.Errorf("failed to mark initialization complete: %w", err)
	}

	s.logger.Infof("Seeded %d default categories on first launch", len(defaultCategories))
	return nil
}

// ListCategories returns all categories ordered by sort order.
func (s *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.Categories.List(ctx)
}

// GetCategory returns a category by ID, or ErrCategoryNotFound.
func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup category %s: %w", id, err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// SaveCategory validates and persists a category, creating or updating it.
func (s *Service) SaveCategory(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if err := category.Validate(); err != nil {
		return err
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if err := s.Categories.Upsert(ctx, category); err != nil {
		return fmt.Errorf("failed to save category %s: %w", category.ID, err)
	}
	return nil
}

// DeleteCategory removes a category. It fails with
// repository.ErrCategoryInUse while any event still references it.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.Categories.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return ErrCategoryNotFound
		}
		return err
	}
	s.logger.Infof("Deleted category %s", id)
	return nil
}
