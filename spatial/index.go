package spatial

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/nblast/internal/errs"
)

// ErrEmpty is returned when an index is built over zero points.
var ErrEmpty = fmt.Errorf("%w: %w", errs.ErrDegenerate, errors.New("spatial: empty point set"))

// Neighbor is the result of a nearest-neighbour query.
type Neighbor struct {
	// Index is the position of the matched point in the build input.
	Index int
	// SquaredDistance is the squared Euclidean distance to the query.
	SquaredDistance float64
}

// Index answers nearest-neighbour queries over a fixed point set.
type Index interface {
	// Nearest returns the closest indexed point to q.
	Nearest(q r3.Vec) Neighbor
	// Len returns the number of indexed points.
	Len() int
}

// Builder constructs an Index over points. Implementations must not retain
// the slice.
type Builder func(points []r3.Vec) (Index, error)

// KDTreeBuilder builds KDTree indexes.
func KDTreeBuilder(points []r3.Vec) (Index, error) {
	return NewKDTree(points)
}

// FlatBuilder builds Flat indexes.
func FlatBuilder(points []r3.Vec) (Index, error) {
	return NewFlat(points)
}
