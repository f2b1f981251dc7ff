package recurrence

import "errors"

// ErrExpansionLimit is returned when an expansion would generate more than
// MaxCandidates occurrences, which happens when an unbounded rule meets a
// very large query window. Callers surface it as a "range too large"
// condition; the result is never silently truncated.
var ErrExpansionLimit = errors.New("recurrence expansion limit exceeded")
