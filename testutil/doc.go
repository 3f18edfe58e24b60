// Package testutil provides testing utilities for nblast.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, random skeleton generators and an
// exact nearest-neighbour scan used as ground truth.
//
// # Random Skeletons
//
//	rng := testutil.NewRNG(seed)
//	sk := rng.RandomSkeleton("walk", 200, 5.0)
//
// # Ground Truth
//
//	idx, sq := testutil.BruteForceNearest(points, q)
package testutil
