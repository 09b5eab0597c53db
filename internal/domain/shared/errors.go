package shared

import "fmt"

// ValidationError indicates a caller-fixable business rule violation. It carries
// the offending field with expected and actual values so callers can render a
// precise message without re-deriving context.
type ValidationError struct {
	Field    string
	Expected string
	Actual   string
	Message  string
}

func (e ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (field %s: expected %s, got %s)", e.Message, e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("validation failed for field %s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// ErrInvalidParameter indicates empty or contradictory input that makes the
// requested computation impossible.
type ErrInvalidParameter struct {
	Field  string
	Reason string
}

func (e ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}
