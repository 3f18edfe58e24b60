// Package scoretable implements the binned (distance, angle) → score lookup
// used to weight segment matches.
//
// A Table holds two strictly ascending sequences of bin upper boundaries and
// a D×A grid of scores. Values beyond the last boundary clamp to the last bin.
// Tables are immutable and safe for concurrent reads.
//
// # File Format
//
// Tables are stored as tab-separated text:
//
//	dist/angle	cos_0.1	cos_0.2	...	cos_1
//	20000	9.5104	8.0493	...	0.1041
//	30000	...
//
// The header names one angle bin per column as <label>_<boundary>. Every data
// row starts with its distance boundary. Files ending in .zst or .lz4 are
// transparently compressed with zstd or lz4 frames.
package scoretable
