package matrix

import (
	"fmt"

	"github.com/hupe1980/nblast/internal/errs"
)

var (
	// ErrZeroTotal is returned when normalizing a grid whose total is zero.
	ErrZeroTotal = fmt.Errorf("%w: matrix: counts total is zero", errs.ErrSampling)

	// ErrNoPairs is returned when there is nothing to sample from.
	ErrNoPairs = fmt.Errorf("%w: matrix: empty sample universe", errs.ErrSampling)
)

// ErrDimensionMismatch is returned when combining grids of different shape.
type ErrDimensionMismatch struct {
	Rows, Cols           int
	OtherRows, OtherCols int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("matrix: grid is %dx%d, other is %dx%d", e.Rows, e.Cols, e.OtherRows, e.OtherCols)
}

func (e *ErrDimensionMismatch) Unwrap() error { return errs.ErrConfiguration }

// ParseError reports a malformed sample line.
type ParseError struct {
	Line  int
	Text  string
	cause error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("matrix: line %d: malformed sample %q", e.Line, e.Text)
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
