package timeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
)

func TestEditOccurrence_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	count := 3
	plan := f.addPlan(t, time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), time.Hour, "Jog",
		&models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1, Count: &count})
	renamed := "Swim"

	// Empty patch changes nothing.
	err := f.resolver.EditOccurrence(ctx, plan.ID, 0, models.EventPatch{})
	assert.ErrorIs(t, err, models.ErrValidation)

	// Index past the rule's count bound.
	err = f.resolver.EditOccurrence(ctx, plan.ID, 5, models.EventPatch{Activity: &renamed})
	assert.ErrorIs(t, err, ErrInvalidOccurrence)

	// Unknown series.
	err = f.resolver.EditOccurrence(ctx, uuid.New(), 0, models.EventPatch{Activity: &renamed})
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	// Non-recurring events have no occurrence indexes.
	single := f.addPlan(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), time.Hour, "Review", nil)
	err = f.resolver.EditOccurrence(ctx, single.ID, 0, models.EventPatch{Activity: &renamed})
	assert.ErrorIs(t, err, ErrInvalidOccurrence)
}

func TestEditOccurrence_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.addPlan(t, time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), time.Hour, "Jog",
		&models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1})
	renamed := "Swim"

	require.NoError(t, f.resolver.EditOccurrence(ctx, plan.ID, 1, models.EventPatch{Activity: &renamed}))
	require.NoError(t, f.resolver.EditOccurrence(ctx, plan.ID, 1, models.EventPatch{Activity: &renamed}))

	excs, err := f.store.Exceptions().ListBySeries(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, excs, 1)
	require.NotNil(t, excs[1].Override)
	assert.Equal(t, "Swim", *excs[1].Override.Activity)
	assert.False(t, excs[1].IsDeleted)
}

func TestDeleteOccurrence_SupersedesOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.addPlan(t, time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), time.Hour, "Jog",
		&models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1})
	renamed := "Swim"

	require.NoError(t, f.resolver.EditOccurrence(ctx, plan.ID, 1, models.EventPatch{Activity: &renamed}))
	require.NoError(t, f.resolver.DeleteOccurrence(ctx, plan.ID, 1))

	excs, err := f.store.Exceptions().ListBySeries(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, excs, 1)
	assert.True(t, excs[1].IsDeleted)
	assert.Nil(t, excs[1].Override)
}

func TestEditSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.addPlan(t, time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), time.Hour, "Jog",
		&models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1})

	renamed := "Morning run"
	updated, err := f.resolver.EditSeries(ctx, plan.ID, models.EventPatch{Activity: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Morning run", updated.Activity)

	stored, err := f.store.PlannedEvents().GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning run", stored.Activity)

	_, err = f.resolver.EditSeries(ctx, uuid.New(), models.EventPatch{Activity: &renamed})
	assert.ErrorIs(t, err, ErrSeriesNotFound)
}

func TestDeleteSeries_RemovesExceptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.addPlan(t, time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), time.Hour, "Jog",
		&models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1})
	require.NoError(t, f.resolver.DeleteOccurrence(ctx, plan.ID, 1))

	require.NoError(t, f.resolver.DeleteSeries(ctx, plan.ID))

	stored, err := f.store.PlannedEvents().GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	excs, err := f.store.Exceptions().ListBySeries(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, excs)

	assert.ErrorIs(t, f.resolver.DeleteSeries(ctx, plan.ID), ErrSeriesNotFound)
}

func TestEditOccurrence_ConcurrentSameKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.addPlan(t, time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), time.Hour, "Jog",
		&models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1})

	names := []string{"Swim", "Bike", "Row", "Climb"}
	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			errs[i] = f.resolver.EditOccurrence(ctx, plan.ID, 2, models.EventPatch{Activity: &name})
		}(i, name)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// One record survives, holding one of the competing patches intact.
	excs, err := f.store.Exceptions().ListBySeries(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, excs, 1)
	require.NotNil(t, excs[2].Override)
	assert.Contains(t, names, *excs[2].Override.Activity)
}
