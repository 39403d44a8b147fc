package models

import (
	"errors"
	"fmt"
)

// ErrMalformedValue is matched by every ParseError.
var ErrMalformedValue = errors.New("malformed value")

// ParseError identifies a cell that could not be interpreted.
// Row is the 1-based data row, header excluded.
type ParseError struct {
	Table  DatasetKind
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s row %d column %s: cannot parse %q: %v", e.Table, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedValue, e.Err}
}
