// Package skeleton models tree-structured 3D skeletons such as neuron
// reconstructions.
//
// A Skeleton is an immutable, ordered sequence of Points. Each point may name a
// parent; the directed line from a point to its parent is a Segment, and the
// segment midpoints are what the matcher compares between skeletons.
//
// # Loading
//
//	sk, err := skeleton.ReadFile("neurons/fru-M-200266.swc")
//	if err != nil { ... }
//	for _, seg := range sk.Segments() {
//	    fmt.Println(seg.ID, seg.Midpoint)
//	}
//
// Point ids are resolved through an id→index map built once at load time, so
// files need not number their points contiguously. Use WithContiguousIDs to
// insist on 0-based ids that equal their position in the file.
//
// # Angles
//
// AngleMeasure returns an Angle, a tagged result that is either a value in
// [0,1] or explicitly undefined (one of the vectors has zero length).
package skeleton
