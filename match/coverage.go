package match

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/nblast/skeleton"
)

// Summary describes how much of a target a set of matches touched.
type Summary struct {
	// Matches is the number of matches.
	Matches int
	// Undefined counts matches whose angle is undefined.
	Undefined int
	// DistinctTargets is the number of distinct target segments matched.
	DistinctTargets int
	// Fraction is DistinctTargets over the target's segment count.
	Fraction float64
	// MeanDistance averages the match distances, or 0 without matches.
	MeanDistance float64
}

// Coverage summarizes matches against target.
func Coverage(matches []Match, target *skeleton.Skeleton) Summary {
	seen := roaring.New()
	s := Summary{Matches: len(matches)}

	var total float64
	for _, m := range matches {
		seen.Add(uint32(m.TargetID))
		total += m.Distance
		if m.Angle.Undefined() {
			s.Undefined++
		}
	}

	s.DistinctTargets = int(seen.GetCardinality())
	if n := len(target.Segments()); n > 0 {
		s.Fraction = float64(s.DistinctTargets) / float64(n)
	}
	if len(matches) > 0 {
		s.MeanDistance = total / float64(len(matches))
	}
	return s
}
