package spatial

import (
	"gonum.org/v1/gonum/spatial/r3"
)

var _ Index = (*Flat)(nil)

// Flat is an exact brute-force index. Queries are O(n).
type Flat struct {
	points []r3.Vec
}

// NewFlat builds an index over a copy of points.
func NewFlat(points []r3.Vec) (*Flat, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	cp := make([]r3.Vec, len(points))
	copy(cp, points)
	return &Flat{points: cp}, nil
}

// Nearest implements Index. Exact ties resolve to the lowest index.
func (f *Flat) Nearest(q r3.Vec) Neighbor {
	best := Neighbor{Index: 0, SquaredDistance: r3.Norm2(r3.Sub(f.points[0], q))}
	for i := 1; i < len(f.points); i++ {
		if d := r3.Norm2(r3.Sub(f.points[i], q)); d < best.SquaredDistance {
			best = Neighbor{Index: i, SquaredDistance: d}
		}
	}
	return best
}

// Len implements Index.
func (f *Flat) Len() int { return len(f.points) }
