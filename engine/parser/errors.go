package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned when no rule in the cascade fires
	ErrNoMatch = errors.New("no query pattern matched")

	// ErrMissingAggregateTarget is returned when a sum phrase has no numeric field to sum
	ErrMissingAggregateTarget = errors.New("aggregate target not found")

	// ErrMalformedFilterValue is returned when a comparison value is not a number
	ErrMalformedFilterValue = errors.New("malformed filter value")
)

// MatchError carries the question context of a matching failure
type MatchError struct {
	Err        error
	Input      string
	Rule       string // Rule that failed, if any
	Value      string // Offending literal, if any
	Suggestion string // Closest trigger keyword, if any
}

func (e *MatchError) Error() string {
	msg := e.Err.Error()
	if e.Rule != "" {
		msg = fmt.Sprintf("%s rule: %s", e.Rule, msg)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" '%s'", e.Value)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", e.Suggestion)
	}
	return msg
}

func (e *MatchError) Unwrap() error {
	return e.Err
}
