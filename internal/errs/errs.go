// Package errs holds the error taxonomy shared by every nblast package.
//
// Concrete errors wrap exactly one of these sentinels so callers can classify
// a failure with errors.Is regardless of which package produced it.
package errs

import "errors"

var (
	// ErrInput marks malformed or missing skeleton, table or list input.
	ErrInput = errors.New("nblast: invalid input")

	// ErrDegenerate marks inputs that make a computation undefined, such as
	// zero-length direction vectors, skeletons without segments or zero
	// self-scores.
	ErrDegenerate = errors.New("nblast: degenerate input")

	// ErrSampling marks an empty sample universe or an empty counts grid.
	ErrSampling = errors.New("nblast: sampling failed")

	// ErrConfiguration marks invalid settings such as non-ascending bins.
	ErrConfiguration = errors.New("nblast: invalid configuration")
)
