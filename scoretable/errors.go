package scoretable

import (
	"fmt"

	"github.com/hupe1980/nblast/internal/errs"
)

// ErrBinOrder indicates a boundary sequence that is empty, non-finite or not
// strictly ascending.
type ErrBinOrder struct {
	Axis  string
	Index int
}

func (e *ErrBinOrder) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("scoretable: %s bins are empty", e.Axis)
	}
	return fmt.Sprintf("scoretable: %s bins not strictly ascending at index %d", e.Axis, e.Index)
}

func (e *ErrBinOrder) Unwrap() error { return errs.ErrConfiguration }

// ErrShapeMismatch indicates a grid whose dimensions disagree with the bins.
type ErrShapeMismatch struct {
	Rows, Cols         int
	WantRows, WantCols int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("scoretable: grid is %dx%d, want %dx%d", e.Rows, e.Cols, e.WantRows, e.WantCols)
}

func (e *ErrShapeMismatch) Unwrap() error { return errs.ErrConfiguration }

// ErrInvalidValue indicates a NaN or infinite grid cell.
type ErrInvalidValue struct {
	Row, Col int
	Value    float64
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("scoretable: non-finite score %v at (%d,%d)", e.Value, e.Row, e.Col)
}

func (e *ErrInvalidValue) Unwrap() error { return errs.ErrInput }

// ParseError reports malformed table text.
type ParseError struct {
	Line  int
	Msg   string
	cause error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("scoretable: line %d: %s", e.Line, e.Msg)
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
