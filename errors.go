package nblast

import (
	"fmt"

	"github.com/hupe1980/nblast/internal/errs"
)

// Error classes. Every error returned by this module matches exactly one of
// them with errors.Is.
var (
	// ErrInput marks malformed or missing skeleton, table or list input.
	ErrInput = errs.ErrInput

	// ErrDegenerateInput marks zero-length vectors, skeletons without
	// segments and zero self scores.
	ErrDegenerateInput = errs.ErrDegenerate

	// ErrSampling marks an empty sample universe or empty counts grid.
	ErrSampling = errs.ErrSampling

	// ErrConfiguration marks invalid settings such as non-ascending bins.
	ErrConfiguration = errs.ErrConfiguration
)

var (
	// ErrNilTable is returned by NewScorer when no table is given.
	ErrNilTable = fmt.Errorf("%w: nblast: score table is nil", errs.ErrConfiguration)

	// ErrUndefinedAngle is returned in strict mode when a match compares
	// a zero-length segment.
	ErrUndefinedAngle = fmt.Errorf("%w: nblast: undefined angle", errs.ErrDegenerate)

	// ErrNonFiniteScore is returned when a sum or the normalized score
	// overflows or is otherwise not a finite number.
	ErrNonFiniteScore = fmt.Errorf("%w: nblast: score is not finite", errs.ErrDegenerate)
)

// DegenerateError reports a self-match sum of zero, which would make the
// normalized score undefined.
type DegenerateError struct {
	// Skeleton is the name of the skeleton whose self score vanished.
	Skeleton string
	// Direction is "forward" for the query and "reverse" for the target.
	Direction string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("nblast: %s self score of %q is zero", e.Direction, e.Skeleton)
}

func (e *DegenerateError) Unwrap() error { return errs.ErrDegenerate }

// NonFiniteError reports the first component of a comparison that is NaN or
// infinite.
type NonFiniteError struct {
	Query  string
	Target string
	// Component is one of "forward_self", "forward", "reverse",
	// "reverse_self" or "score".
	Component string
	Value     float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("nblast: %s of %q vs %q is %v", e.Component, e.Query, e.Target, e.Value)
}

func (e *NonFiniteError) Unwrap() error { return ErrNonFiniteScore }
