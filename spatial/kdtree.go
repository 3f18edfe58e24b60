package spatial

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ Index = (*KDTree)(nil)

// KDTree is a k-d tree over 3D points. Build is O(n log n), queries are
// expected O(log n).
type KDTree struct {
	tree *kdtree.Tree
	n    int
}

// NewKDTree builds a tree over a copy of points.
func NewKDTree(points []r3.Vec) (*KDTree, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}

	ns := make(nodes, len(points))
	for i, p := range points {
		ns[i] = node{pos: p, idx: i}
	}

	return &KDTree{
		tree: kdtree.New(ns, false),
		n:    len(points),
	}, nil
}

// Nearest implements Index.
func (t *KDTree) Nearest(q r3.Vec) Neighbor {
	c, d := t.tree.Nearest(node{pos: q, idx: -1})
	return Neighbor{Index: c.(node).idx, SquaredDistance: d}
}

// Len implements Index.
func (t *KDTree) Len() int { return t.n }

// node is a tree element remembering its position in the build input.
type node struct {
	pos r3.Vec
	idx int
}

func coord(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Compare returns the signed distance of n from the plane through c
// perpendicular to dimension d.
func (n node) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(n.pos, d) - coord(c.(node).pos, d)
}

func (node) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, which is what the tree
// compares against squared plane offsets.
func (n node) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(n.pos, c.(node).pos))
}

type nodes []node

func (ns nodes) Index(i int) kdtree.Comparable { return ns[i] }
func (ns nodes) Len() int                      { return len(ns) }
func (ns nodes) Slice(start, end int) kdtree.Interface {
	return ns[start:end]
}

func (ns nodes) Pivot(d kdtree.Dim) int {
	return plane{nodes: ns, dim: d}.Pivot()
}

// plane sorts nodes along one dimension for median partitioning.
type plane struct {
	nodes
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return coord(p.nodes[i].pos, p.dim) < coord(p.nodes[j].pos, p.dim)
}

func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i]
}
