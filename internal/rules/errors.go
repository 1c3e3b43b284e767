package rules

import "errors"

var (
	// ErrUnknownFlag indicates a pattern flag that has no regex option.
	ErrUnknownFlag = errors.New("unknown pattern flag")
	// ErrEmptyPattern indicates a blank pattern string.
	ErrEmptyPattern = errors.New("empty pattern")
)
