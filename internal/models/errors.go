package models

import "errors"

// ErrValidation marks caller-fixable input errors. Wrap it with context and
// test with errors.Is.
var ErrValidation = errors.New("validation failed")
