// Package memory provides in-memory implementations of every repository
// interface. It backs unit tests and the STORE=memory bootstrap mode; the
// postgres package is the production store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

type exceptionKey struct {
	seriesID uuid.UUID
	index    int
}

// Store holds all entities in maps guarded by one RWMutex. The per-entity
// repositories returned by its accessors share this state, so cross-entity
// checks such as category deletion see a consistent view.
type Store struct {
	mu          sync.RWMutex
	categories  map[uuid.UUID]models.Category
	logs        map[uuid.UUID]models.LogEvent
	plans       map[uuid.UUID]models.PlannedEvent
	exceptions  map[exceptionKey]models.ExceptionRecord
	feedbacks   map[string]models.Feedback
	initialized bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		categories: make(map[uuid.UUID]models.Category),
		logs:       make(map[uuid.UUID]models.LogEvent),
		plans:      make(map[uuid.UUID]models.PlannedEvent),
		exceptions: make(map[exceptionKey]models.ExceptionRecord),
		feedbacks:  make(map[string]models.Feedback),
	}
}

// Categories returns the category repository view of the store.
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }

// LogEvents returns the log event repository view of the store.
func (s *Store) LogEvents() repository.LogEventRepository { return &logEventRepo{s} }

// PlannedEvents returns the planned event repository view of the store.
func (s *Store) PlannedEvents() repository.PlannedEventRepository { return &plannedEventRepo{s} }

// Exceptions returns the occurrence exception repository view of the store.
func (s *Store) Exceptions() repository.ExceptionRepository { return &exceptionRepo{s} }

// Settings returns the settings repository view of the store.
func (s *Store) Settings() repository.SettingsRepository { return &settingsRepo{s} }

// Feedbacks returns the feedback repository view of the store.
func (s *Store) Feedbacks() repository.FeedbackRepository { return &feedbackRepo{s} }

// --- Categories ---

type categoryRepo struct{ s *Store }

func (r *categoryRepo) List(_ context.Context) ([]*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *categoryRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryRepo) Upsert(_ context.Context, category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now
	r.s.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, ev := range r.s.logs {
		if ev.CategoryID == id {
			return repository.ErrCategoryInUse
		}
	}
	for _, ev := range r.s.plans {
		if ev.CategoryID == id {
			return repository.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	return nil
}

// --- Log events ---

type logEventRepo struct{ s *Store }

func (r *logEventRepo) GetByID(_ context.Context, id uuid.UUID) (*models.LogEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ev, ok := r.s.logs[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (r *logEventRepo) ListByRange(_ context.Context, from, to time.Time) ([]*models.LogEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.LogEvent
	for _, ev := range r.s.logs {
		if !ev.StartAt.Before(from) && ev.StartAt.Before(to) {
			ev := ev
			out = append(out, &ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *logEventRepo) GetRunning(_ context.Context) (*models.LogEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, ev := range r.s.logs {
		if ev.EndAt == nil {
			ev := ev
			return &ev, nil
		}
	}
	return nil, nil
}

// InsertRunning performs the check-then-insert under the write lock, which
// makes it atomic the same way the partial unique index does in postgres.
func (r *logEventRepo) InsertRunning(_ context.Context, event *models.LogEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, ev := range r.s.logs {
		if ev.EndAt == nil {
			return repository.ErrTimerConflict
		}
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.EndAt = nil
	r.s.logs[event.ID] = *event
	return nil
}

func (r *logEventRepo) Upsert(_ context.Context, event *models.LogEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	r.s.logs[event.ID] = *event
	return nil
}

func (r *logEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.logs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.logs, id)
	return nil
}

// --- Planned events ---

type plannedEventRepo struct{ s *Store }

func (r *plannedEventRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PlannedEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ev, ok := r.s.plans[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (r *plannedEventRepo) GetByExternalID(_ context.Context, externalID string) (*models.PlannedEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, ev := range r.s.plans {
		if ev.ExternalCalendarID != nil && *ev.ExternalCalendarID == externalID {
			ev := ev
			return &ev, nil
		}
	}
	return nil, nil
}

func (r *plannedEventRepo) ListForWindow(_ context.Context, from, to time.Time) ([]*models.PlannedEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.PlannedEvent
	for _, ev := range r.s.plans {
		if !ev.IsActive {
			continue
		}
		if ev.Recurrence == nil {
			if !ev.StartAt.Before(from) && ev.StartAt.Before(to) {
				ev := ev
				out = append(out, &ev)
			}
		} else if ev.StartAt.Before(to) {
			ev := ev
			out = append(out, &ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *plannedEventRepo) Upsert(_ context.Context, event *models.PlannedEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	r.s.plans[event.ID] = *event
	return nil
}

func (r *plannedEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.plans, id)
	return nil
}

// --- Occurrence exceptions ---

type exceptionRepo struct{ s *Store }

func (r *exceptionRepo) ListBySeries(_ context.Context, seriesID uuid.UUID) (map[int]*models.ExceptionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[int]*models.ExceptionRecord)
	for key, rec := range r.s.exceptions {
		if key.seriesID == seriesID {
			rec := rec
			out[key.index] = &rec
		}
	}
	return out, nil
}

func (r *exceptionRepo) Upsert(_ context.Context, record *models.ExceptionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := exceptionKey{seriesID: record.SeriesID, index: record.Index}
	now := time.Now()
	if existing, ok := r.s.exceptions[key]; ok {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	r.s.exceptions[key] = *record
	return nil
}

func (r *exceptionRepo) DeleteBySeries(_ context.Context, seriesID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for key := range r.s.exceptions {
		if key.seriesID == seriesID {
			delete(r.s.exceptions, key)
		}
	}
	return nil
}

// --- Settings ---

type settingsRepo struct{ s *Store }

func (r *settingsRepo) IsFirstLaunch(_ context.Context) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return !r.s.initialized, nil
}

func (r *settingsRepo) MarkInitialized(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.initialized = true
	return nil
}

// --- Feedback ---

type feedbackRepo struct{ s *Store }

func (r *feedbackRepo) GetByDate(_ context.Context, date models.Date) (*models.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.feedbacks[date.String()]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r *feedbackRepo) Upsert(_ context.Context, feedback *models.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now()
	}
	r.s.feedbacks[feedback.TargetDate.String()] = *feedback
	return nil
}
