package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
)

func newSeries(start, end time.Time, rule models.RecurrenceRule) Series {
	return Series{ID: uuid.New(), StartAt: start, EndAt: end, Rule: rule}
}

func occDates(occs []models.Occurrence) []models.Date {
	out := make([]models.Date, len(occs))
	for i, occ := range occs {
		out[i] = models.DateOf(occ.StartAt.UTC())
	}
	return out
}

func TestExpand_DailyWithIntervalAndCount(t *testing.T) {
	count := 3
	series := newSeries(
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 2, Count: &count},
	)

	occs, err := Expand(series, models.NewDate(2026, 2, 1), models.NewDate(2026, 3, 1), time.UTC)
	require.NoError(t, err)
	require.Len(t, occs, 3)

	assert.Equal(t, []models.Date{
		models.NewDate(2026, 2, 1),
		models.NewDate(2026, 2, 3),
		models.NewDate(2026, 2, 5),
	}, occDates(occs))
	for i, occ := range occs {
		assert.Equal(t, i, occ.Index)
		assert.Equal(t, 9, occ.StartAt.UTC().Hour())
		assert.Equal(t, time.Hour, occ.EndAt.Sub(occ.StartAt))
	}
}

func TestExpand_WeeklySingleDay(t *testing.T) {
	// Anchored on a Monday; every Monday of January 2026.
	series := newSeries(
		time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC),
		models.RecurrenceRule{
			Frequency:  models.FrequencyWeekly,
			Interval:   1,
			DaysOfWeek: []time.Weekday{time.Monday},
		},
	)

	occs, err := Expand(series, models.NewDate(2026, 1, 1), models.NewDate(2026, 2, 1), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []models.Date{
		models.NewDate(2026, 1, 5),
		models.NewDate(2026, 1, 12),
		models.NewDate(2026, 1, 19),
		models.NewDate(2026, 1, 26),
	}, occDates(occs))
}

func TestExpand_WeeklyAnchorMidWeekSkipsEarlierDays(t *testing.T) {
	// Anchored on a Wednesday with a Mon/Wed/Fri rule. The Monday of the
	// anchor week precedes the anchor, so it is not an occurrence and must
	// not consume an index either.
	series := newSeries(
		time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC),
		models.RecurrenceRule{
			Frequency:  models.FrequencyWeekly,
			Interval:   1,
			DaysOfWeek: []time.Weekday{time.Friday, time.Monday, time.Wednesday},
		},
	)

	occs, err := Expand(series, models.NewDate(2026, 1, 1), models.NewDate(2026, 1, 17), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []models.Date{
		models.NewDate(2026, 1, 7),
		models.NewDate(2026, 1, 9),
		models.NewDate(2026, 1, 12),
		models.NewDate(2026, 1, 14),
		models.NewDate(2026, 1, 16),
	}, occDates(occs))
	for i, occ := range occs {
		assert.Equal(t, i, occ.Index)
	}
}

func TestExpand_MonthlyClampsToLastDay(t *testing.T) {
	series := newSeries(
		time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 13, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyMonthly, Interval: 1},
	)

	occs, err := Expand(series, models.NewDate(2026, 1, 1), models.NewDate(2026, 5, 1), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []models.Date{
		models.NewDate(2026, 1, 31),
		models.NewDate(2026, 2, 28),
		models.NewDate(2026, 3, 31),
		models.NewDate(2026, 4, 30),
	}, occDates(occs))
}

func TestExpand_IndicesStableAcrossWindows(t *testing.T) {
	series := newSeries(
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1},
	)

	// Query a window that excludes the first week; indices must still count
	// from the anchor.
	occs, err := Expand(series, models.NewDate(2026, 2, 8), models.NewDate(2026, 2, 11), time.UTC)
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.Equal(t, 7, occs[0].Index)
	assert.Equal(t, 8, occs[1].Index)
	assert.Equal(t, 9, occs[2].Index)
}

func TestExpand_EndDateBound(t *testing.T) {
	endDate := models.NewDate(2026, 2, 10)
	series := newSeries(
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 3, EndDate: &endDate},
	)

	occs, err := Expand(series, models.NewDate(2026, 2, 1), models.NewDate(2026, 3, 1), time.UTC)
	require.NoError(t, err)

	// 1, 4, 7, 10 are in bounds; 13 is past the end date.
	assert.Equal(t, []models.Date{
		models.NewDate(2026, 2, 1),
		models.NewDate(2026, 2, 4),
		models.NewDate(2026, 2, 7),
		models.NewDate(2026, 2, 10),
	}, occDates(occs))
}

func TestExpand_CountCapsBeforeEndDate(t *testing.T) {
	count := 2
	endDate := models.NewDate(2026, 12, 31)
	series := newSeries(
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1, Count: &count, EndDate: &endDate},
	)

	occs, err := Expand(series, models.NewDate(2026, 2, 1), models.NewDate(2027, 1, 1), time.UTC)
	require.NoError(t, err)
	assert.Len(t, occs, 2)
}

func TestExpand_EmptyWindow(t *testing.T) {
	series := newSeries(
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1},
	)

	occs, err := Expand(series, models.NewDate(2026, 2, 10), models.NewDate(2026, 2, 10), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestExpand_Deterministic(t *testing.T) {
	series := newSeries(
		time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC),
		models.RecurrenceRule{
			Frequency:  models.FrequencyWeekly,
			Interval:   2,
			DaysOfWeek: []time.Weekday{time.Wednesday, time.Saturday},
		},
	)

	first, err := Expand(series, models.NewDate(2026, 1, 1), models.NewDate(2026, 3, 1), time.UTC)
	require.NoError(t, err)
	second, err := Expand(series, models.NewDate(2026, 1, 1), models.NewDate(2026, 3, 1), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpand_CandidateCap(t *testing.T) {
	series := newSeries(
		time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1},
	)

	// An unbounded daily rule queried fifty years out generates far more
	// than the candidate cap.
	_, err := Expand(series, models.NewDate(2026, 1, 1), models.NewDate(2076, 1, 1), time.UTC)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpansionLimit)
}

func TestExpand_InvalidRule(t *testing.T) {
	series := newSeries(
		time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: "YEARLY", Interval: 1},
	)

	_, err := Expand(series, models.NewDate(2026, 1, 1), models.NewDate(2026, 2, 1), time.UTC)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestWithinBounds(t *testing.T) {
	count := 5
	counted := newSeries(
		time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1, Count: &count},
	)

	ok, err := WithinBounds(counted, 4, time.UTC)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = WithinBounds(counted, 5, time.UTC)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = WithinBounds(counted, -1, time.UTC)
	require.NoError(t, err)
	assert.False(t, ok)

	endDate := models.NewDate(2026, 1, 12)
	dated := newSeries(
		time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyWeekly, Interval: 1,
			DaysOfWeek: []time.Weekday{time.Monday}, EndDate: &endDate},
	)

	// Two Mondays fit before the end date.
	ok, err = WithinBounds(dated, 1, time.UTC)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = WithinBounds(dated, 2, time.UTC)
	require.NoError(t, err)
	assert.False(t, ok)

	unbounded := newSeries(
		time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1},
	)

	ok, err = WithinBounds(unbounded, 9999, time.UTC)
	require.NoError(t, err)
	assert.True(t, ok)
}
