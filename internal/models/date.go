package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day or timezone attached.
// Range boundaries travel through the system as Dates and are converted to
// absolute instants only at the store boundary, using the caller's location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// StartOfDay returns local midnight of the date in loc.
func (d Date) StartOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the instant at the given time-of-day on this date in loc.
func (d Date) At(hour, min, sec, nsec int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, sec, nsec, loc)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.StartOfDay(time.UTC).AddDate(0, 0, n))
}

// AddMonths returns the date n months later, clamped to the last valid day
// of the target month (adding one month to Jan 31 yields Feb 28/29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// Weekday returns the day of the week of the date.
func (d Date) Weekday() time.Weekday {
	return d.StartOfDay(time.UTC).Weekday()
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.compare(other) < 0
}

// After reports whether d is later than other.
func (d Date) After(other Date) bool {
	return d.compare(other) > 0
}

func (d Date) compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return d.Year - other.Year
	case d.Month != other.Month:
		return int(d.Month) - int(other.Month)
	default:
		return d.Day - other.Day
	}
}

// DaysUntil returns the number of days from d to other (negative when other
// is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.StartOfDay(time.UTC).Sub(d.StartOfDay(time.UTC)) / (24 * time.Hour))
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
