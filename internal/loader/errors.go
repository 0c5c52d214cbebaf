package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNumber marks a required numeric field that did not convert.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrMissingField marks a required column absent from the line.
	ErrMissingField = errors.New("missing field")
)

// ParseError reports a required field that could not be used.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: column %s: cannot parse %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
