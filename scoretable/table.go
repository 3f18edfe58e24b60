package scoretable

import (
	"math"
	"sort"
)

// DefaultAngleLabel is the header label for cosine angle columns.
const DefaultAngleLabel = "cos"

// Table maps (distance, angle) pairs to scores.
type Table struct {
	distanceBins []float64
	angleBins    []float64
	grid         []float64 // row-major, len(distanceBins) × len(angleBins)
	label        string
}

type tableOptions struct {
	label string
}

// Option configures New.
type Option func(*tableOptions)

// WithAngleLabel sets the header label of the angle columns ("cos", "sin").
func WithAngleLabel(label string) Option {
	return func(o *tableOptions) {
		if label != "" {
			o.label = label
		}
	}
}

// New validates and copies the inputs. grid must have one row per distance
// bin and one column per angle bin.
func New(distanceBins, angleBins []float64, grid [][]float64, optFns ...Option) (*Table, error) {
	opts := tableOptions{label: DefaultAngleLabel}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := ValidateBins("distance", distanceBins); err != nil {
		return nil, err
	}
	if err := ValidateBins("angle", angleBins); err != nil {
		return nil, err
	}

	d, a := len(distanceBins), len(angleBins)
	if len(grid) != d {
		return nil, &ErrShapeMismatch{Rows: len(grid), Cols: rowLen(grid), WantRows: d, WantCols: a}
	}

	flat := make([]float64, 0, d*a)
	for i, row := range grid {
		if len(row) != a {
			return nil, &ErrShapeMismatch{Rows: d, Cols: len(row), WantRows: d, WantCols: a}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ErrInvalidValue{Row: i, Col: j, Value: v}
			}
		}
		flat = append(flat, row...)
	}

	return &Table{
		distanceBins: append([]float64(nil), distanceBins...),
		angleBins:    append([]float64(nil), angleBins...),
		grid:         flat,
		label:        opts.label,
	}, nil
}

func rowLen(grid [][]float64) int {
	if len(grid) == 0 {
		return 0
	}
	return len(grid[0])
}

// ValidateBins checks that bounds is non-empty, finite and strictly
// ascending. axis names the sequence in the error.
func ValidateBins(axis string, bounds []float64) error {
	if len(bounds) == 0 {
		return &ErrBinOrder{Axis: axis, Index: -1}
	}
	for i, b := range bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return &ErrBinOrder{Axis: axis, Index: i}
		}
		if i > 0 && b <= bounds[i-1] {
			return &ErrBinOrder{Axis: axis, Index: i}
		}
	}
	return nil
}

// Bin returns the index of the first boundary >= v, or the last index when v
// exceeds every boundary. bounds must be ascending and non-empty.
func Bin(bounds []float64, v float64) int {
	i := sort.SearchFloat64s(bounds, v)
	if i >= len(bounds) {
		return len(bounds) - 1
	}
	return i
}

// Score returns the grid value of the bins containing distance and angle.
func (t *Table) Score(distance, angle float64) float64 {
	return t.At(t.DistanceBin(distance), t.AngleBin(angle))
}

// DistanceBin returns the distance bin index of v.
func (t *Table) DistanceBin(v float64) int { return Bin(t.distanceBins, v) }

// AngleBin returns the angle bin index of v.
func (t *Table) AngleBin(v float64) int { return Bin(t.angleBins, v) }

// At returns the grid value at row i and column j.
func (t *Table) At(i, j int) float64 { return t.grid[i*len(t.angleBins)+j] }

// Dims returns the number of distance and angle bins.
func (t *Table) Dims() (int, int) { return len(t.distanceBins), len(t.angleBins) }

// DistanceBins returns a copy of the distance boundaries.
func (t *Table) DistanceBins() []float64 { return append([]float64(nil), t.distanceBins...) }

// AngleBins returns a copy of the angle boundaries.
func (t *Table) AngleBins() []float64 { return append([]float64(nil), t.angleBins...) }

// AngleLabel returns the header label of the angle columns.
func (t *Table) AngleLabel() string { return t.label }

// Rows returns a copy of the grid.
func (t *Table) Rows() [][]float64 {
	a := len(t.angleBins)
	rows := make([][]float64, len(t.distanceBins))
	for i := range rows {
		rows[i] = append([]float64(nil), t.grid[i*a:(i+1)*a]...)
	}
	return rows
}

// Constant returns a table whose every cell holds v.
func Constant(distanceBins, angleBins []float64, v float64, optFns ...Option) (*Table, error) {
	grid := make([][]float64, len(distanceBins))
	for i := range grid {
		grid[i] = make([]float64, len(angleBins))
		for j := range grid[i] {
			grid[i][j] = v
		}
	}
	return New(distanceBins, angleBins, grid, optFns...)
}
