package nblast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hupe1980/nblast/match"
	"github.com/hupe1980/nblast/scoretable"
	"github.com/hupe1980/nblast/skeleton"
)

// Result holds a normalized score and the four sums it was derived from.
type Result struct {
	// Score is (Forward/ForwardSelf + Reverse/ReverseSelf) / 2.
	Score float64

	Forward     float64
	ForwardSelf float64
	Reverse     float64
	ReverseSelf float64

	// Undefined counts matches left out because an angle was undefined.
	Undefined int
}

// Scorer compares skeletons against a fixed score table.
//
// A Scorer is safe for concurrent use.
type Scorer struct {
	table   *scoretable.Table
	matcher *match.Matcher
	opts    options
}

// NewScorer creates a Scorer over table.
func NewScorer(table *scoretable.Table, optFns ...Option) (*Scorer, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	opts := applyOptions(optFns)
	if opts.workers <= 0 {
		return nil, fmt.Errorf("%w: nblast: workers must be positive, got %d", ErrConfiguration, opts.workers)
	}

	return &Scorer{
		table:   table,
		matcher: match.New(match.WithAngleMode(opts.mode), match.WithIndex(opts.index)),
		opts:    opts,
	}, nil
}

// Table returns the score table.
func (s *Scorer) Table() *scoretable.Table { return s.table }

// Matcher returns the matcher used for all comparisons.
func (s *Scorer) Matcher() *match.Matcher { return s.matcher }

// Prepare builds the spatial index of sk for repeated comparisons.
func (s *Scorer) Prepare(sk *skeleton.Skeleton) (*match.Target, error) {
	return s.matcher.Prepare(sk)
}

// Score compares query and target.
func (s *Scorer) Score(query, target *skeleton.Skeleton) (Result, error) {
	q, err := s.Prepare(query)
	if err != nil {
		return Result{}, err
	}
	t, err := s.Prepare(target)
	if err != nil {
		return Result{}, err
	}
	return s.ScorePrepared(q, t)
}

// ScorePrepared compares two prepared skeletons.
func (s *Scorer) ScorePrepared(query, target *match.Target) (Result, error) {
	start := time.Now()
	self, undefined, err := s.SelfScore(query)
	if err != nil {
		s.opts.metricsCollector.RecordScore(time.Since(start), err)
		return Result{}, err
	}
	res, err := s.scoreWithSelf(query, target, self, undefined)
	s.opts.metricsCollector.RecordScore(time.Since(start), err)
	return res, err
}

// SelfScore returns the sum of t matched against itself and the number of
// matches left out for undefined angles.
func (s *Scorer) SelfScore(t *match.Target) (float64, int, error) {
	return s.sum(t.Skeleton(), t)
}

func (s *Scorer) scoreWithSelf(query, target *match.Target, forwardSelf float64, undefined int) (Result, error) {
	res := Result{ForwardSelf: forwardSelf, Undefined: undefined}
	if forwardSelf == 0 {
		return Result{}, &DegenerateError{Skeleton: query.Skeleton().Name(), Direction: "forward"}
	}

	var (
		n   int
		err error
	)
	if res.Forward, n, err = s.sum(query.Skeleton(), target); err != nil {
		return Result{}, err
	}
	res.Undefined += n
	if res.Reverse, n, err = s.sum(target.Skeleton(), query); err != nil {
		return Result{}, err
	}
	res.Undefined += n
	if res.ReverseSelf, n, err = s.sum(target.Skeleton(), target); err != nil {
		return Result{}, err
	}
	res.Undefined += n
	if res.ReverseSelf == 0 {
		return Result{}, &DegenerateError{Skeleton: target.Skeleton().Name(), Direction: "reverse"}
	}

	res.Score = (res.Forward/res.ForwardSelf + res.Reverse/res.ReverseSelf) / 2
	if err := checkFinite(query.Skeleton().Name(), target.Skeleton().Name(), res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func checkFinite(query, target string, res Result) error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"forward_self", res.ForwardSelf},
		{"forward", res.Forward},
		{"reverse", res.Reverse},
		{"reverse_self", res.ReverseSelf},
		{"score", res.Score},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return &NonFiniteError{Query: query, Target: target, Component: c.name, Value: c.v}
		}
	}
	return nil
}

func (s *Scorer) sum(query *skeleton.Skeleton, target *match.Target) (float64, int, error) {
	matches, err := s.matcher.Match(query, target)
	if err != nil {
		return 0, 0, err
	}

	var (
		total     float64
		undefined int
	)
	for _, mt := range matches {
		a, ok := mt.Angle.Value()
		if !ok {
			if s.opts.strictAngles {
				return 0, 0, fmt.Errorf("%s point %d vs %s point %d: %w",
					query.Name(), mt.QueryID, target.Skeleton().Name(), mt.TargetID, ErrUndefinedAngle)
			}
			undefined++
			continue
		}
		total += s.table.Score(mt.Distance, a)
	}
	s.opts.metricsCollector.RecordMatch(len(matches), undefined)
	if ctx := context.Background(); s.opts.logger.Enabled(ctx, slog.LevelDebug) {
		s.opts.logger.LogCoverage(ctx, query.Name(), target.Skeleton().Name(), match.Coverage(matches, target.Skeleton()))
	}
	return total, undefined, nil
}

// ScoreFiles reads two SWC files and compares them.
func (s *Scorer) ScoreFiles(ctx context.Context, queryPath, targetPath string) (Result, error) {
	q, err := skeleton.ReadFile(queryPath)
	if err != nil {
		return Result{}, err
	}
	t, err := skeleton.ReadFile(targetPath)
	if err != nil {
		return Result{}, err
	}
	res, err := s.Score(q, t)
	s.opts.logger.LogScore(ctx, q.Name(), t.Name(), res, err)
	return res, err
}
