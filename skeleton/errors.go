package skeleton

import (
	"errors"
	"fmt"

	"github.com/hupe1980/nblast/internal/errs"
)

var (
	// ErrEmpty is returned when a skeleton source contains no points.
	ErrEmpty = errors.New("skeleton: no points")
)

// ParseError reports a malformed point record.
type ParseError struct {
	// Line is the 1-based line number, or 0 when parsing a single record.
	Line  int
	Field string
	Value string
	cause error
}

func (e *ParseError) Error() string {
	var msg string
	if e.Field == "" {
		msg = fmt.Sprintf("skeleton: malformed record %q", e.Value)
	} else {
		msg = fmt.Sprintf("skeleton: invalid %s %q", e.Field, e.Value)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.cause == nil {
		return []error{errs.ErrInput}
	}
	return []error{errs.ErrInput, e.cause}
}

// ErrDuplicateID indicates two points sharing one id.
type ErrDuplicateID struct {
	ID int
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("skeleton: duplicate point id %d", e.ID)
}

func (e *ErrDuplicateID) Unwrap() error { return errs.ErrInput }

// ErrUnknownParent indicates a parent reference to an id that is not present.
type ErrUnknownParent struct {
	ID     int
	Parent int
}

func (e *ErrUnknownParent) Error() string {
	return fmt.Sprintf("skeleton: point %d references unknown parent %d", e.ID, e.Parent)
}

func (e *ErrUnknownParent) Unwrap() error { return errs.ErrInput }

// ErrNonContiguous indicates a point whose id differs from its position while
// contiguous ids are required.
type ErrNonContiguous struct {
	ID       int
	Position int
}

func (e *ErrNonContiguous) Error() string {
	return fmt.Sprintf("skeleton: point id %d at position %d, want contiguous 0-based ids", e.ID, e.Position)
}

func (e *ErrNonContiguous) Unwrap() error { return errs.ErrInput }
