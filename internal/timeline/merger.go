// Package timeline composes the view of a date range: stored log events,
// stored planned events, and occurrences expanded from recurring series with
// their per-instance exceptions applied. It also owns the edit semantics for
// single occurrences of a recurring series.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/recurrence"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

// PlannedOccurrence is one view-ready planned slot: either a non-recurring
// planned event (index 0) or a resolved occurrence of a recurring series.
type PlannedOccurrence struct {
	SeriesID    uuid.UUID       `json:"series_id"`
	Index       int             `json:"index"`
	Activity    string          `json:"activity"`
	Category    models.Category `json:"category"`
	StartAt     time.Time       `json:"start_at"`
	EndAt       time.Time       `json:"end_at"`
	AllDay      bool            `json:"all_day"`
	Memo        string          `json:"memo"`
	IsException bool            `json:"is_exception"`
}

// RangeView is the merged result for a date range. SkippedIDs lists events
// that could not be resolved (orphaned category references) and were
// excluded without failing the whole range.
type RangeView struct {
	Logs       []*models.LogEvent  `json:"logs"`
	Planned    []PlannedOccurrence `json:"planned"`
	SkippedIDs []uuid.UUID         `json:"skipped_ids,omitempty"`
}

// Merger assembles RangeViews from the raw stores. It holds no mutable
// state; concurrent Range calls are safe.
type Merger struct {
	logs       repository.LogEventRepository
	plans      repository.PlannedEventRepository
	categories repository.CategoryRepository
	exceptions repository.ExceptionRepository
	logger     *logrus.Logger
}

// NewMerger creates a Merger over the given stores.
func NewMerger(
	logs repository.LogEventRepository,
	plans repository.PlannedEventRepository,
	categories repository.CategoryRepository,
	exceptions repository.ExceptionRepository,
	logger *logrus.Logger,
) *Merger {
	return &Merger{logs: logs, plans: plans, categories: categories, exceptions: exceptions, logger: logger}
}

// Range returns the merged view for the inclusive date range [start, end],
// evaluated in loc. The instant window runs from local midnight of start to
// local midnight of the day after end, exclusive.
func (m *Merger) Range(ctx context.Context, start, end models.Date, loc *time.Location) (*RangeView, error) {
	if loc == nil {
		loc = time.Local
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end %s is before range start %s", models.ErrValidation, end, start)
	}

	windowStart := start.StartOfDay(loc)
	windowEnd := end.AddDays(1).StartOfDay(loc)

	view := &RangeView{}
	cats := newCategoryCache(m.categories)

	logs, err := m.logs.ListByRange(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list log events: %w", err)
	}
	for _, ev := range logs {
		cat, err := cats.get(ctx, ev.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			m.logger.WithFields(logrus.Fields{"log_event_id": ev.ID, "category_id": ev.CategoryID}).
				Warn("skipping log event with orphaned category")
			view.SkippedIDs = append(view.SkippedIDs, ev.ID)
			continue
		}
		ev.Category = cat
		view.Logs = append(view.Logs, ev)
	}

	plans, err := m.plans.ListForWindow(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned events: %w", err)
	}
	for _, plan := range plans {
		cat, err := cats.get(ctx, plan.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			m.logger.WithFields(logrus.Fields{"planned_event_id": plan.ID, "category_id": plan.CategoryID}).
				Warn("skipping planned event with orphaned category")
			view.SkippedIDs = append(view.SkippedIDs, plan.ID)
			continue
		}

		if !plan.IsRecurring() {
			view.Planned = append(view.Planned, PlannedOccurrence{
				SeriesID: plan.ID,
				Index:    0,
				Activity: plan.Activity,
				Category: *cat,
				StartAt:  plan.StartAt,
				EndAt:    plan.EndAt,
				AllDay:   plan.AllDay,
				Memo:     plan.Memo,
			})
			continue
		}

		resolved, err := m.resolveSeries(ctx, plan, cat, cats, start, end, loc)
		if err != nil {
			return nil, err
		}
		view.Planned = append(view.Planned, resolved...)
	}

	sortView(view)
	return view, nil
}

// Day is shorthand for a single-date Range.
func (m *Merger) Day(ctx context.Context, date models.Date, loc *time.Location) (*RangeView, error) {
	return m.Range(ctx, date, date, loc)
}

// resolveSeries expands one recurring series over the range and applies its
// stored exceptions: deleted occurrences are omitted, overrides patched in.
func (m *Merger) resolveSeries(
	ctx context.Context,
	plan *models.PlannedEvent,
	cat *models.Category,
	cats *categoryCache,
	start, end models.Date,
	loc *time.Location,
) ([]PlannedOccurrence, error) {
	series, _ := recurrence.SeriesOf(plan)
	occs, err := recurrence.Expand(series, start, end.AddDays(1), loc)
	if err != nil {
		return nil, fmt.Errorf("failed to expand series %s: %w", plan.ID, err)
	}
	if len(occs) == 0 {
		return nil, nil
	}

	excs, err := m.exceptions.ListBySeries(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exceptions for series %s: %w", plan.ID, err)
	}

	out := make([]PlannedOccurrence, 0, len(occs))
	for _, occ := range occs {
		po := PlannedOccurrence{
			SeriesID: plan.ID,
			Index:    occ.Index,
			Activity: plan.Activity,
			Category: *cat,
			StartAt:  occ.StartAt,
			EndAt:    occ.EndAt,
			AllDay:   plan.AllDay,
			Memo:     plan.Memo,
		}

		exc, ok := excs[occ.Index]
		if ok {
			if exc.IsDeleted {
				continue
			}
			if exc.Override != nil {
				if err := m.applyOverride(ctx, &po, exc.Override, cats); err != nil {
					m.logger.WithError(err).WithFields(logrus.Fields{
						"series_id": plan.ID, "index": occ.Index,
					}).Warn("skipping occurrence with unresolvable override")
					continue
				}
				po.IsException = true
			}
		}
		out = append(out, po)
	}
	return out, nil
}

func (m *Merger) applyOverride(ctx context.Context, po *PlannedOccurrence, patch *models.EventPatch, cats *categoryCache) error {
	if patch.Activity != nil {
		po.Activity = *patch.Activity
	}
	if patch.CategoryID != nil {
		cat, err := cats.get(ctx, *patch.CategoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("override category %s not found", *patch.CategoryID)
		}
		po.Category = *cat
	}
	if patch.StartAt != nil {
		po.StartAt = *patch.StartAt
	}
	if patch.EndAt != nil {
		po.EndAt = *patch.EndAt
	}
	if patch.Memo != nil {
		po.Memo = *patch.Memo
	}
	return nil
}

// sortView orders both sequences by start time ascending, with id-based tie
// breaking so repeated calls return identical orderings.
func sortView(view *RangeView) {
	sort.SliceStable(view.Logs, func(i, j int) bool {
		a, b := view.Logs[i], view.Logs[j]
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
	sort.SliceStable(view.Planned, func(i, j int) bool {
		a, b := view.Planned[i], view.Planned[j]
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		if cmp := strings.Compare(a.SeriesID.String(), b.SeriesID.String()); cmp != 0 {
			return cmp < 0
		}
		return a.Index < b.Index
	})
}

// categoryCache memoizes category lookups within one Range call.
type categoryCache struct {
	repo  repository.CategoryRepository
	cache map[uuid.UUID]*models.Category
}

func newCategoryCache(repo repository.CategoryRepository) *categoryCache {
	return &categoryCache{repo: repo, cache: make(map[uuid.UUID]*models.Category)}
}

func (c *categoryCache) get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if cat, ok := c.cache[id]; ok {
		return cat, nil
	}
	cat, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %s: %w", id, err)
	}
	c.cache[id] = cat
	return cat, nil
}
