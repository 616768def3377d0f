package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMalformedInput    = errors.New("malformed input")
	ErrMalformedAddress  = errors.New("malformed address")
	ErrMissingIdentifier = errors.New("missing facility identifier")
)

// RowError pins a pipeline failure to a source row (0-based) and column.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
