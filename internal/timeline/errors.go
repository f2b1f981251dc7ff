package timeline

import "errors"

var (
	// ErrSeriesNotFound is returned when an occurrence or series operation
	// targets a planned event that does not exist.
	ErrSeriesNotFound = errors.New("series not found")

	// ErrInvalidOccurrence is returned when an occurrence index can never be
	// produced by the series' rule (beyond its count or end-date bound, or
	// the event is not recurring).
	ErrInvalidOccurrence = errors.New("invalid occurrence index")
)
