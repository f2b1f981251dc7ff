// Package recurrence expands recurrence rules into concrete occurrences.
//
// Expansion is a pure function of its inputs: the same series, rule, and
// query window always produce the same occurrence sequence. Occurrence
// indices are zero-based and counted from the series anchor, so they are
// stable identifiers for individual instances regardless of the queried
// window.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
)

// MaxCandidates caps how many occurrence candidates a single expansion may
// generate. It guards against unbounded rules combined with a distant range
// end; hitting it fails the expansion with ErrExpansionLimit instead of
// silently truncating.
const MaxCandidates = 10000

// Series is the anchor of a recurring planned event: the absolute window of
// its first occurrence plus the rule deriving the rest.
type Series struct {
	ID      uuid.UUID
	StartAt time.Time
	EndAt   time.Time
	Rule    models.RecurrenceRule
}

// SeriesOf builds a Series from a recurring planned event. The second return
// is false when the event has no recurrence rule.
func SeriesOf(e *models.PlannedEvent) (Series, bool) {
	if e.Recurrence == nil {
		return Series{}, false
	}
	return Series{ID: e.ID, StartAt: e.StartAt, EndAt: e.EndAt, Rule: *e.Recurrence}, true
}

// Expand returns the occurrences of the series that intersect the window
// [rangeStart, rangeEnd) of calendar dates, evaluated in loc. Candidates
// before rangeStart are generated (so indices stay correct) but filtered
// from the result. Generation stops, in order, when the rule's count is
// exhausted, when a candidate falls past the rule's end date, or when a
// candidate reaches rangeEnd.
func Expand(series Series, rangeStart, rangeEnd models.Date, loc *time.Location) ([]models.Occurrence, error) {
	if err := series.Rule.Validate(); err != nil {
		return nil, err
	}
	if !series.EndAt.After(series.StartAt) {
		return nil, fmt.Errorf("%w: series end must be after series start", models.ErrValidation)
	}
	if loc == nil {
		loc = time.Local
	}
	if !rangeStart.Before(rangeEnd) {
		return nil, nil
	}

	anchorLocal := series.StartAt.In(loc)
	gen := generator{
		series:     series,
		rule:       series.Rule,
		loc:        loc,
		anchorDate: models.DateOf(anchorLocal),
		hour:       anchorLocal.Hour(),
		min:        anchorLocal.Minute(),
		sec:        anchorLocal.Second(),
		nsec:       anchorLocal.Nanosecond(),
		duration:   series.EndAt.Sub(series.StartAt),
		rangeStart: rangeStart,
		rangeEnd:   rangeEnd,
	}
	return gen.run()
}

// WithinBounds reports whether the series can produce an occurrence at the
// given zero-based index, i.e. whether index falls inside the rule's
// count/end-date bounds. An unbounded rule admits every non-negative index.
func WithinBounds(series Series, index int, loc *time.Location) (bool, error) {
	if index < 0 {
		return false, nil
	}
	if err := series.Rule.Validate(); err != nil {
		return false, err
	}
	if series.Rule.Count != nil && index >= *series.Rule.Count {
		return false, nil
	}
	if series.Rule.EndDate == nil {
		return index < MaxCandidates, nil
	}
	// Bounded by end date: expand up to the end date and see whether the
	// index is ever generated.
	if loc == nil {
		loc = time.Local
	}
	anchor := models.DateOf(series.StartAt.In(loc))
	occs, err := Expand(series, anchor, series.Rule.EndDate.AddDays(1), loc)
	if err != nil {
		return false, err
	}
	for _, occ := range occs {
		if occ.Index == index {
			return true, nil
		}
	}
	return false, nil
}

type generator struct {
	series     Series
	rule       models.RecurrenceRule
	loc        *time.Location
	anchorDate models.Date
	hour       int
	min        int
	sec        int
	nsec       int
	duration   time.Duration
	rangeStart models.Date
	rangeEnd   models.Date

	generated int
	out       []models.Occurrence
	done      bool
}

func (g *generator) run() ([]models.Occurrence, error) {
	var err error
	switch g.rule.Frequency {
	case models.FrequencyDaily:
		err = g.stepped(func(k int) models.Date {
			return g.anchorDate.AddDays(k * g.rule.Interval)
		})
	case models.FrequencyWeekly:
		if len(g.rule.DaysOfWeek) == 0 {
			err = g.stepped(func(k int) models.Date {
				return g.anchorDate.AddDays(k * 7 * g.rule.Interval)
			})
		} else {
			err = g.weeklyByDay()
		}
	case models.FrequencyMonthly:
		err = g.stepped(func(k int) models.Date {
			return g.anchorDate.AddMonths(k * g.rule.Interval)
		})
	}
	if err != nil {
		return nil, err
	}
	return g.out, nil
}

// stepped generates candidates from a monotonically increasing date function
// of the step number.
func (g *generator) stepped(dateAt func(k int) models.Date) error {
	for k := 0; !g.done; k++ {
		if err := g.emit(dateAt(k)); err != nil {
			return err
		}
	}
	return nil
}

// weeklyByDay enumerates the rule's weekday set within each interval-week
// block, in ascending ISO weekday order (Monday first), starting from the
// week containing the anchor. Weekdays of the anchor week that fall before
// the anchor itself are not part of the series and are skipped without
// consuming an index.
func (g *generator) weeklyByDay() error {
	offsets := weekdayOffsets(g.rule.DaysOfWeek)
	weekStart := g.anchorDate.AddDays(-isoWeekdayIndex(g.anchorDate.Weekday()))
	for block := 0; !g.done; block++ {
		blockStart := weekStart.AddDays(block * 7 * g.rule.Interval)
		for _, off := range offsets {
			candidate := blockStart.AddDays(off)
			if candidate.Before(g.anchorDate) {
				continue
			}
			if err := g.emit(candidate); err != nil {
				return err
			}
			if g.done {
				break
			}
		}
	}
	return nil
}

// emit applies the stop conditions to one candidate date and, when the
// candidate survives them and lies inside the query window, appends the
// occurrence. Stop-condition order: count, end date, range end.
func (g *generator) emit(date models.Date) error {
	if g.rule.Count != nil && g.generated >= *g.rule.Count {
		g.done = true
		return nil
	}
	if g.rule.EndDate != nil && date.After(*g.rule.EndDate) {
		g.done = true
		return nil
	}
	if !date.Before(g.rangeEnd) {
		g.done = true
		return nil
	}
	if g.generated >= MaxCandidates {
		return fmt.Errorf("%w: series %s exceeded %d candidates", ErrExpansionLimit, g.series.ID, MaxCandidates)
	}

	index := g.generated
	g.generated++

	if date.Before(g.rangeStart) {
		return nil
	}

	start := date.At(g.hour, g.min, g.sec, g.nsec, g.loc)
	g.out = append(g.out, models.Occurrence{
		SeriesID: g.series.ID,
		Index:    index,
		StartAt:  start,
		EndAt:    start.Add(g.duration),
	})
	return nil
}

// isoWeekdayIndex maps a weekday to its ISO position, Monday=0 .. Sunday=6.
func isoWeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// weekdayOffsets returns the deduplicated day offsets from the ISO week
// start for the given weekday set, in ascending order.
func weekdayOffsets(days []time.Weekday) []int {
	seen := make(map[int]bool, len(days))
	offsets := make([]int, 0, len(days))
	for _, wd := range days {
		off := isoWeekdayIndex(wd)
		if !seen[off] {
			seen[off] = true
			offsets = append(offsets, off)
		}
	}
	sort.Ints(offsets)
	return offsets
}
