package nblast

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/nblast/match"
	"github.com/hupe1980/nblast/skeleton"
)

// Loader resolves a skeleton id.
type Loader interface {
	Load(ctx context.Context, id string) (*skeleton.Skeleton, error)
}

// BatchResult is the outcome of comparing the query with one target.
type BatchResult struct {
	Target string
	Result Result
	Err    error
}

// ScoreMany compares query with every target id and returns one result per
// id, in input order. A failing target records its error in the result and
// does not affect the others. The returned error is non-nil only when the
// query itself cannot be scored or ctx is canceled.
func (s *Scorer) ScoreMany(ctx context.Context, query *skeleton.Skeleton, ids []string, loader Loader) ([]BatchResult, error) {
	start := time.Now()

	q, err := s.Prepare(query)
	if err != nil {
		return nil, err
	}
	self, undefined, err := s.SelfScore(q)
	if err != nil {
		return nil, err
	}
	if self == 0 {
		return nil, &DegenerateError{Skeleton: query.Name(), Direction: "forward"}
	}
	if math.IsNaN(self) || math.IsInf(self, 0) {
		return nil, &NonFiniteError{Query: query.Name(), Target: query.Name(), Component: "forward_self", Value: self}
	}

	results := make([]BatchResult, len(ids))

	var g errgroup.Group
	g.SetLimit(s.opts.workers)
	for i, id := range ids {
		results[i].Target = id
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			results[i].Result, results[i].Err = s.scoreTarget(ctx, q, id, loader, self, undefined)
			s.opts.logger.LogScore(ctx, query.Name(), id, results[i].Result, results[i].Err)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	elapsed := time.Since(start)
	s.opts.metricsCollector.RecordBatch(len(ids), failed, elapsed)
	s.opts.logger.LogBatch(ctx, query.Name(), len(ids), failed, elapsed)

	return results, ctx.Err()
}

func (s *Scorer) scoreTarget(ctx context.Context, q *match.Target, id string, loader Loader, self float64, undefined int) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sk, err := loader.Load(ctx, id)
	if err != nil {
		s.opts.metricsCollector.RecordScore(time.Since(start), err)
		return Result{}, err
	}
	t, err := s.Prepare(sk)
	if err != nil {
		s.opts.metricsCollector.RecordScore(time.Since(start), err)
		return Result{}, err
	}

	res, err := s.scoreWithSelf(q, t, self, undefined)
	s.opts.metricsCollector.RecordScore(time.Since(start), err)
	return res, err
}
