// Package matrix estimates score tables from sampled segment matches.
//
// Two counts grids are accumulated: one from pairs of skeletons known to
// correspond and one from randomly drawn pairs. Each grid is turned into an
// empirical cumulative distribution (PrefixSum followed by Normalize), and
// the final table holds the base-2 log-likelihood ratio of the two.
//
// Builder drives the sampling with a configurable number of workers. Every
// worker accumulates into private grids that are summed at the end, so the
// result does not depend on the worker count for a fixed sample sequence.
package matrix
