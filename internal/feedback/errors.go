package feedback

import "errors"

var (
	// ErrNotConfigured is returned when no Gemini API key is set.
	ErrNotConfigured = errors.New("feedback generation is not configured")

	// ErrAPIFailure is returned when the Gemini API responds with a non-200
	// status.
	ErrAPIFailure = errors.New("feedback API request failed")

	// ErrBadResponse is returned when the API response cannot be parsed into
	// a KPT retrospective.
	ErrBadResponse = errors.New("feedback API returned an unparseable response")
)
