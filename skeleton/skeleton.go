package skeleton

import (
	"strconv"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is the directed line from a non-root point to its parent.
type Segment struct {
	// ID is the id of the owning (child) point.
	ID int
	// ParentID is the id of the parent point.
	ParentID int
	// Vector points from the owner to its parent.
	Vector r3.Vec
	// Midpoint lies halfway along Vector.
	Midpoint r3.Vec
}

// Skeleton is an immutable tree of points. It is safe for concurrent use.
type Skeleton struct {
	name   string
	points []Point
	index  map[int]int

	segmentsOnce sync.Once
	segments     []Segment
	midpoints    []r3.Vec
}

type buildOptions struct {
	contiguous bool
}

// Option configures skeleton construction and loading.
type Option func(*buildOptions)

// WithContiguousIDs requires every point id to equal its 0-based position.
func WithContiguousIDs() Option {
	return func(o *buildOptions) {
		o.contiguous = true
	}
}

// New builds a skeleton from points in their given order. The slice is copied.
//
// Duplicate ids, negative ids and parents that name no point are rejected.
func New(name string, points []Point, optFns ...Option) (*Skeleton, error) {
	opts := buildOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Skeleton{
		name:   name,
		points: make([]Point, 0, len(points)),
		index:  make(map[int]int, len(points)),
	}

	for i, p := range points {
		if p.ID < 0 {
			return nil, &ParseError{Field: "id", Value: strconv.Itoa(p.ID)}
		}
		if opts.contiguous && p.ID != i {
			return nil, &ErrNonContiguous{ID: p.ID, Position: i}
		}
		if _, dup := s.index[p.ID]; dup {
			return nil, &ErrDuplicateID{ID: p.ID}
		}
		s.index[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}

	for _, p := range s.points {
		if !p.Parent.Valid {
			continue
		}
		if _, ok := s.index[p.Parent.ID]; !ok {
			return nil, &ErrUnknownParent{ID: p.ID, Parent: p.Parent.ID}
		}
	}

	return s, nil
}

// Name returns the skeleton identifier, typically the file basename.
func (s *Skeleton) Name() string { return s.name }

// Len returns the number of points.
func (s *Skeleton) Len() int { return len(s.points) }

// At returns the point at position i.
func (s *Skeleton) At(i int) Point { return s.points[i] }

// Lookup returns the point with the given id.
func (s *Skeleton) Lookup(id int) (Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return Point{}, false
	}
	return s.points[i], true
}

// Points returns a copy of all points in load order.
func (s *Skeleton) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Parent returns the parent of p, if any.
func (s *Skeleton) Parent(p Point) (Point, bool) {
	if !p.Parent.Valid {
		return Point{}, false
	}
	return s.Lookup(p.Parent.ID)
}

// Segments returns the segments of all non-root points in load order.
//
// The result is computed once and shared; callers must not modify it.
func (s *Skeleton) Segments() []Segment {
	s.derive()
	return s.segments
}

// Midpoints returns the segment midpoints, aligned with Segments.
//
// The result is computed once and shared; callers must not modify it.
func (s *Skeleton) Midpoints() []r3.Vec {
	s.derive()
	return s.midpoints
}

func (s *Skeleton) derive() {
	s.segmentsOnce.Do(func() {
		for _, p := range s.points {
			parent, ok := s.Parent(p)
			if !ok {
				continue
			}
			s.segments = append(s.segments, Segment{
				ID:       p.ID,
				ParentID: parent.ID,
				Vector:   r3.Sub(parent.Pos, p.Pos),
				Midpoint: Midpoint(p.Pos, parent.Pos),
			})
		}
		s.midpoints = make([]r3.Vec, len(s.segments))
		for i, seg := range s.segments {
			s.midpoints[i] = seg.Midpoint
		}
	})
}
