// Package spatial answers 1-nearest-neighbour queries over 3D point sets.
//
// Two implementations satisfy Index: KDTree, backed by gonum's k-d tree, and
// Flat, an exact linear scan used as ground truth and for tiny inputs. Both
// are immutable after construction and safe for concurrent queries.
//
// Ties between equidistant candidates are broken deterministically: Flat
// returns the lowest index; KDTree returns whichever candidate its traversal
// reaches first, which is fixed for a given build.
package spatial
