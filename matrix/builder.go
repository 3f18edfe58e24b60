package matrix

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/nblast/internal/errs"
	"github.com/hupe1980/nblast/match"
	"github.com/hupe1980/nblast/scoretable"
	"github.com/hupe1980/nblast/skeleton"
)

// Kind identifies which distribution a sample belongs to.
type Kind uint8

const (
	// Known samples come from pairs listed as true correspondences.
	Known Kind = iota
	// Random samples come from uniformly drawn pairs.
	Random
)

func (k Kind) String() string {
	if k == Known {
		return "known"
	}
	return "random"
}

// Pair names a query and a target skeleton.
type Pair struct {
	Query  string
	Target string
}

// Loader resolves a skeleton id.
type Loader interface {
	Load(ctx context.Context, id string) (*skeleton.Skeleton, error)
}

// Source describes the sample universe.
type Source struct {
	// KnownPairs are drawn from uniformly with replacement.
	KnownPairs []Pair
	// Queries and Targets are the id sets random pairs are drawn from.
	Queries []string
	Targets []string
	// Loader resolves ids to skeletons.
	Loader Loader
}

// Recorder receives one event per sampled pair.
type Recorder interface {
	RecordSample(kind string, matches int, err error)
}

// KindStats summarizes the samples of one Kind.
type KindStats struct {
	Pairs     int
	Matches   int
	Undefined int
	Skipped   int
}

func (s *KindStats) add(o KindStats) {
	s.Pairs += o.Pairs
	s.Matches += o.Matches
	s.Undefined += o.Undefined
	s.Skipped += o.Skipped
}

// Stats summarizes a sampling run.
type Stats struct {
	Iterations int
	Known      KindStats
	Random     KindStats
	// SkippedSkeletons lists, sorted, every id whose load or match failed.
	SkippedSkeletons []string
}

// Result is the outcome of Build.
type Result struct {
	// Table holds the log-likelihood ratio scores.
	Table *scoretable.Table
	// Known and Random are the two ECDF grids.
	Known  *Counts
	Random *Counts
	Stats  Stats
}

type options struct {
	iterations   int
	workers      int
	seed         uint64
	seeded       bool
	distanceBins []float64
	angleBins    []float64
	epsilon      float64
	matcher      *match.Matcher
	logger       *slog.Logger
	recorder     Recorder
	progress     time.Duration
}

// Option configures a Builder.
type Option func(*options)

// WithIterations sets the sampling budget. Each iteration draws one known
// and one random pair.
func WithIterations(n int) Option {
	return func(o *options) { o.iterations = n }
}

// WithWorkers sets the number of sampling goroutines.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithSeed makes sampling reproducible for a single worker.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithBins sets the distance and angle boundaries of the grids.
func WithBins(distanceBins, angleBins []float64) Option {
	return func(o *options) {
		o.distanceBins = distanceBins
		o.angleBins = angleBins
	}
}

// WithEpsilon sets the ratio offset used by LogLikelihoodRatio.
func WithEpsilon(eps float64) Option {
	return func(o *options) { o.epsilon = eps }
}

// WithMatcher sets the matcher used for every sampled pair.
func WithMatcher(m *match.Matcher) Option {
	return func(o *options) {
		if m != nil {
			o.matcher = m
		}
	}
}

// WithLogger sets the logger for progress and skipped pairs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder receives one event per sampled pair.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithProgressInterval sets the minimum time between progress records.
// Zero disables progress logging.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) { o.progress = d }
}

// Builder samples skeleton pairs and estimates a score table.
type Builder struct {
	opts options
}

// NewBuilder validates the options and returns a Builder.
func NewBuilder(optFns ...Option) (*Builder, error) {
	opts := options{
		iterations:   1000,
		workers:      runtime.GOMAXPROCS(0),
		distanceBins: DefaultDistanceBins,
		angleBins:    DefaultAngleBins,
		epsilon:      DefaultEpsilon,
		progress:     10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.iterations <= 0 {
		return nil, fmt.Errorf("%w: matrix: iterations must be positive, got %d", errs.ErrConfiguration, opts.iterations)
	}
	if opts.workers <= 0 {
		return nil, fmt.Errorf("%w: matrix: workers must be positive, got %d", errs.ErrConfiguration, opts.workers)
	}
	if opts.epsilon <= 0 {
		return nil, fmt.Errorf("%w: matrix: epsilon must be positive, got %v", errs.ErrConfiguration, opts.epsilon)
	}
	if err := scoretable.ValidateBins("distance", opts.distanceBins); err != nil {
		return nil, err
	}
	if err := scoretable.ValidateBins("angle", opts.angleBins); err != nil {
		return nil, err
	}
	if opts.matcher == nil {
		opts.matcher = match.New()
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !opts.seeded {
		opts.seed = rand.Uint64()
	}

	return &Builder{opts: opts}, nil
}

// Build runs the sampling budget and returns the log-likelihood ratio table.
func (b *Builder) Build(ctx context.Context, src Source) (*Result, error) {
	if len(src.KnownPairs) == 0 || len(src.Queries) == 0 || len(src.Targets) == 0 {
		return nil, ErrNoPairs
	}

	grids, stats, err := b.run(ctx, src, []Kind{Known, Random})
	if err != nil {
		return nil, err
	}

	known, err := grids[Known].ECDF()
	if err != nil {
		return nil, fmt.Errorf("known samples: %w", err)
	}
	random, err := grids[Random].ECDF()
	if err != nil {
		return nil, fmt.Errorf("random samples: %w", err)
	}

	tbl, err := LogLikelihoodRatio(known, random, b.opts.epsilon, scoretable.WithAngleLabel(b.opts.matcher.Mode().Label()))
	if err != nil {
		return nil, err
	}

	b.opts.logger.Info("score table built",
		"iterations", stats.Iterations,
		"known_matches", stats.Known.Matches,
		"random_matches", stats.Random.Matches,
		"skipped_skeletons", len(stats.SkippedSkeletons),
	)

	return &Result{Table: tbl, Known: known, Random: random, Stats: stats}, nil
}

// Sample draws pairs of a single kind and returns their raw counts.
func (b *Builder) Sample(ctx context.Context, src Source, kind Kind) (*Counts, Stats, error) {
	switch kind {
	case Known:
		if len(src.KnownPairs) == 0 {
			return nil, Stats{}, ErrNoPairs
		}
	default:
		if len(src.Queries) == 0 || len(src.Targets) == 0 {
			return nil, Stats{}, ErrNoPairs
		}
	}

	grids, stats, err := b.run(ctx, src, []Kind{kind})
	if err != nil {
		return nil, Stats{}, err
	}
	return grids[kind], stats, nil
}

type worker struct {
	b       *Builder
	src     Source
	rng     *rand.Rand
	grids   [2]*Counts
	stats   Stats
	skipped func(id string)
}

func (b *Builder) run(ctx context.Context, src Source, kinds []Kind) ([2]*Counts, Stats, error) {
	var grids [2]*Counts
	proto, err := NewCounts(b.opts.distanceBins, b.opts.angleBins)
	if err != nil {
		return grids, Stats{}, err
	}
	grids[Known], grids[Random] = proto, proto.Fork()

	var (
		budget atomic.Int64
		done   atomic.Int64
		mu     sync.Mutex
		failed = make(map[string]struct{})
	)
	budget.Store(int64(b.opts.iterations))

	skipped := func(id string) {
		mu.Lock()
		failed[id] = struct{}{}
		mu.Unlock()
	}

	var limiter *rate.Limiter
	if b.opts.progress > 0 {
		limiter = rate.NewLimiter(rate.Every(b.opts.progress), 1)
		limiter.Allow()
	}

	workers := make([]*worker, b.opts.workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		wk := &worker{
			b:       b,
			src:     src,
			rng:     rand.New(rand.NewPCG(b.opts.seed, uint64(w))),
			grids:   [2]*Counts{proto.Fork(), proto.Fork()},
			skipped: skipped,
		}
		workers[w] = wk

		g.Go(func() error {
			for budget.Add(-1) >= 0 {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, k := range kinds {
					wk.sample(gctx, k)
				}
				wk.stats.Iterations++

				n := done.Add(1)
				if limiter != nil && limiter.Allow() {
					b.opts.logger.Info("sampling progress", "done", n, "total", b.opts.iterations)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return grids, Stats{}, err
	}

	var stats Stats
	for _, wk := range workers {
		for _, k := range kinds {
			if err := grids[k].Add(wk.grids[k]); err != nil {
				return grids, Stats{}, err
			}
		}
		stats.Iterations += wk.stats.Iterations
		stats.Known.add(wk.stats.Known)
		stats.Random.add(wk.stats.Random)
	}

	for id := range failed {
		stats.SkippedSkeletons = append(stats.SkippedSkeletons, id)
	}
	sort.Strings(stats.SkippedSkeletons)

	return grids, stats, nil
}

func (w *worker) draw(kind Kind) Pair {
	if kind == Known {
		return w.src.KnownPairs[w.rng.IntN(len(w.src.KnownPairs))]
	}
	return Pair{
		Query:  w.src.Queries[w.rng.IntN(len(w.src.Queries))],
		Target: w.src.Targets[w.rng.IntN(len(w.src.Targets))],
	}
}

func (w *worker) sample(ctx context.Context, kind Kind) {
	pair := w.draw(kind)
	st := &w.stats.Known
	if kind == Random {
		st = &w.stats.Random
	}

	n, undefined, err := w.accumulate(ctx, pair, w.grids[kind])
	if rec := w.b.opts.recorder; rec != nil {
		rec.RecordSample(kind.String(), n, err)
	}
	if err != nil {
		st.Skipped++
		w.b.opts.logger.Warn("skipping pair",
			"kind", kind.String(),
			"query", pair.Query,
			"target", pair.Target,
			"error", err,
		)
		return
	}

	st.Pairs++
	st.Matches += n
	st.Undefined += undefined
}

func (w *worker) accumulate(ctx context.Context, pair Pair, c *Counts) (int, int, error) {
	q, err := w.src.Loader.Load(ctx, pair.Query)
	if err != nil {
		w.skipped(pair.Query)
		return 0, 0, err
	}
	t, err := w.src.Loader.Load(ctx, pair.Target)
	if err != nil {
		w.skipped(pair.Target)
		return 0, 0, err
	}

	matches, err := w.b.opts.matcher.MatchSkeletons(q, t)
	if err != nil {
		w.skipped(pair.Target)
		return 0, 0, err
	}

	var n, undefined int
	for _, mt := range matches {
		a, ok := mt.Angle.Value()
		if !ok {
			undefined++
			continue
		}
		c.Increment(mt.Distance, a, 1)
		n++
	}
	return n, undefined, nil
}
