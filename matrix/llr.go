package matrix

import (
	"math"

	"github.com/hupe1980/nblast/scoretable"
)

// DefaultEpsilon is added to every ratio before taking the logarithm.
const DefaultEpsilon = 1e-12

// MaxLogRatio is the score assigned where the random distribution is zero
// but the known distribution is not. It mirrors log2(eps), the score of a
// cell where only the random distribution has mass.
func MaxLogRatio(eps float64) float64 { return math.Log2(1 / eps) }

// LogRatio returns log2(k/r + eps) for a single cell.
//
// When r is zero the ratio is unbounded: cells with k > 0 get MaxLogRatio(eps)
// and cells where both are zero get 0.
func LogRatio(k, r, eps float64) float64 {
	if r == 0 {
		if k > 0 {
			return MaxLogRatio(eps)
		}
		return 0
	}
	return math.Log2(k/r + eps)
}

// LogLikelihoodRatio combines two ECDF grids of equal shape into a score
// table. eps <= 0 selects DefaultEpsilon.
func LogLikelihoodRatio(known, random *Counts, eps float64, optFns ...scoretable.Option) (*scoretable.Table, error) {
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	rows, cols := known.Dims()
	rr, rc := random.Dims()
	if rows != rr || cols != rc {
		return nil, &ErrDimensionMismatch{Rows: rows, Cols: cols, OtherRows: rr, OtherCols: rc}
	}

	out := known.Fork()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, LogRatio(known.At(i, j), random.At(i, j), eps))
		}
	}
	return out.Table(optFns...)
}
