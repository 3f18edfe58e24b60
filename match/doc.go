// Package match pairs the segments of a query skeleton with their nearest
// segments in a target skeleton.
//
// For every non-root query point the matcher finds the target segment whose
// midpoint is closest to the query segment midpoint and reports the distance
// between the midpoints together with the angle between the two segments.
//
//	m := match.New(match.WithAngleMode(skeleton.Cosine))
//	target, err := m.Prepare(targetSkeleton)
//	if err != nil { ... }
//	matches, err := m.Match(querySkeleton, target)
//
// A prepared Target owns its spatial index and can be matched against any
// number of queries concurrently.
package match
