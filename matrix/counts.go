package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/nblast/scoretable"
)

var (
	// DefaultDistanceBins are the distance upper boundaries used when none
	// are configured.
	DefaultDistanceBins = []float64{20000, 30000, 45000, 65000, 90000, 120000, 160000}

	// DefaultAngleBins are the angle upper boundaries used when none are
	// configured.
	DefaultAngleBins = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
)

// Counts is a mutable D×A grid of accumulated match weights.
//
// Counts is not safe for concurrent mutation.
type Counts struct {
	distanceBins []float64
	angleBins    []float64
	grid         *mat.Dense
}

// NewCounts returns a zeroed grid over the given boundaries.
func NewCounts(distanceBins, angleBins []float64) (*Counts, error) {
	if err := scoretable.ValidateBins("distance", distanceBins); err != nil {
		return nil, err
	}
	if err := scoretable.ValidateBins("angle", angleBins); err != nil {
		return nil, err
	}
	return &Counts{
		distanceBins: append([]float64(nil), distanceBins...),
		angleBins:    append([]float64(nil), angleBins...),
		grid:         mat.NewDense(len(distanceBins), len(angleBins), nil),
	}, nil
}

// Fork returns a zeroed grid with the same boundaries.
func (c *Counts) Fork() *Counts {
	r, cols := c.grid.Dims()
	return &Counts{
		distanceBins: c.distanceBins,
		angleBins:    c.angleBins,
		grid:         mat.NewDense(r, cols, nil),
	}
}

// Clone returns a deep copy.
func (c *Counts) Clone() *Counts {
	return &Counts{
		distanceBins: c.distanceBins,
		angleBins:    c.angleBins,
		grid:         mat.DenseCopyOf(c.grid),
	}
}

// Dims returns the number of distance and angle bins.
func (c *Counts) Dims() (int, int) { return c.grid.Dims() }

// At returns the cell at row i and column j.
func (c *Counts) At(i, j int) float64 { return c.grid.At(i, j) }

// Set overwrites the cell at row i and column j.
func (c *Counts) Set(i, j int, v float64) { c.grid.Set(i, j, v) }

// Increment adds w to the cell containing (distance, angle).
func (c *Counts) Increment(distance, angle, w float64) {
	i := scoretable.Bin(c.distanceBins, distance)
	j := scoretable.Bin(c.angleBins, angle)
	c.grid.Set(i, j, c.grid.At(i, j)+w)
}

// Add sums other into c element-wise.
func (c *Counts) Add(other *Counts) error {
	r, cols := c.grid.Dims()
	or, ocols := other.grid.Dims()
	if r != or || cols != ocols {
		return &ErrDimensionMismatch{Rows: r, Cols: cols, OtherRows: or, OtherCols: ocols}
	}
	c.grid.Add(c.grid, other.grid)
	return nil
}

// Total returns the sum of all cells.
func (c *Counts) Total() float64 { return mat.Sum(c.grid) }

// PrefixSum replaces every cell with the sum of all cells above and to the
// left of it, inclusive. Applying it twice changes the values again.
func (c *Counts) PrefixSum() {
	rows, cols := c.grid.Dims()
	for i := 0; i < rows; i++ {
		var running float64
		for j := 0; j < cols; j++ {
			orig := c.grid.At(i, j)
			v := orig + running
			running += orig
			if i > 0 {
				v += c.grid.At(i-1, j)
			}
			c.grid.Set(i, j, v)
		}
	}
}

// Normalize divides every cell by the bottom-right cell. After PrefixSum
// this yields an empirical CDF whose bottom-right cell is exactly 1.
func (c *Counts) Normalize() error {
	rows, cols := c.grid.Dims()
	total := c.grid.At(rows-1, cols-1)
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return ErrZeroTotal
	}
	c.grid.Apply(func(_, _ int, v float64) float64 { return v / total }, c.grid)
	return nil
}

// ECDF returns a cumulative, normalized copy of c. c is left unchanged.
func (c *Counts) ECDF() (*Counts, error) {
	e := c.Clone()
	e.PrefixSum()
	if err := e.Normalize(); err != nil {
		return nil, err
	}
	return e, nil
}

// Table exports the grid as a score table.
func (c *Counts) Table(optFns ...scoretable.Option) (*scoretable.Table, error) {
	return scoretable.New(c.distanceBins, c.angleBins, c.rows(), optFns...)
}

func (c *Counts) rows() [][]float64 {
	rows, cols := c.grid.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		mat.Row(out[i], i, c.grid)
	}
	return out
}
