package dataset

import (
	"fmt"

	"github.com/hupe1980/nblast/internal/errs"
)

// ErrDuplicateID is returned by Scan when two blobs map to the same id.
type ErrDuplicateID struct {
	ID           string
	First, Other string
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("dataset: id %q is used by both %s and %s", e.ID, e.First, e.Other)
}

func (e *ErrDuplicateID) Unwrap() error { return errs.ErrInput }

// ErrUnknownID is returned when a collection has no skeleton with the id.
type ErrUnknownID struct {
	ID string
}

func (e *ErrUnknownID) Error() string {
	return fmt.Sprintf("dataset: unknown skeleton %q", e.ID)
}

func (e *ErrUnknownID) Unwrap() error { return errs.ErrInput }

// ParseError reports a malformed known-matches row.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset: line %d: want two identifiers, got %q", e.Line, e.Text)
}

func (e *ParseError) Unwrap() error { return errs.ErrInput }
