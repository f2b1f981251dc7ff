package service

import "errors"

var (
	// ErrCategoryNotFound is returned when an operation references a missing
	// category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrLogEventNotFound is returned when an operation references a missing
	// log event.
	ErrLogEventNotFound = errors.New("log event not found")

	// ErrPlannedEventNotFound is returned when an operation references a
	// missing planned event.
	ErrPlannedEventNotFound = errors.New("planned event not found")

	// ErrTimerRunning is returned by StartTimer when another timer is still
	// active.
	ErrTimerRunning = errors.New("a timer is already running")

	// ErrNoRunningTimer is returned by StopTimer when nothing is active.
	ErrNoRunningTimer = errors.New("no running timer")
)
