package matrix

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/nblast/internal/errs"
	"github.com/hupe1980/nblast/skeleton"
	"github.com/hupe1980/nblast/testutil"
)

type mapLoader map[string]*skeleton.Skeleton

func (m mapLoader) Load(_ context.Context, id string) (*skeleton.Skeleton, error) {
	sk, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown skeleton %q", errs.ErrInput, id)
	}
	return sk, nil
}

type countingRecorder struct {
	mu     sync.Mutex
	events map[string]int
	errs   int
}

func (r *countingRecorder) RecordSample(kind string, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string]int)
	}
	r.events[kind]++
	if err != nil {
		r.errs++
	}
}

// universe builds five scattered random trees plus a jittered twin of each.
func universe(t *testing.T) Source {
	t.Helper()
	rng := testutil.NewRNG(7)
	loader := mapLoader{}
	var src Source

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("n%d", i)
		twin := id + "-twin"
		base := rng.RandomSkeleton(id, 40, 2000)
		loader[id] = base
		loader[twin] = rng.Jitter(base, twin, 500)

		src.KnownPairs = append(src.KnownPairs, Pair{Query: id, Target: twin})
		src.Queries = append(src.Queries, id)
		src.Targets = append(src.Targets, twin)
	}
	src.Loader = loader
	return src
}

func TestBuilder_Build(t *testing.T) {
	src := universe(t)
	rec := &countingRecorder{}

	b, err := NewBuilder(WithIterations(50), WithWorkers(1), WithSeed(1), WithRecorder(rec))
	require.NoError(t, err)

	res, err := b.Build(context.Background(), src)
	require.NoError(t, err)

	d, a := res.Table.Dims()
	assert.Equal(t, len(DefaultDistanceBins), d)
	assert.Equal(t, len(DefaultAngleBins), a)
	assert.Equal(t, "cos", res.Table.AngleLabel())

	assert.Equal(t, 50, res.Stats.Iterations)
	assert.Equal(t, 50, res.Stats.Known.Pairs)
	assert.Equal(t, 50, res.Stats.Random.Pairs)
	assert.Equal(t, 50*39, res.Stats.Known.Matches+res.Stats.Known.Undefined)
	assert.Empty(t, res.Stats.SkippedSkeletons)
	assert.Equal(t, map[string]int{"known": 50, "random": 50}, rec.events)

	rows, cols := res.Known.Dims()
	assert.Equal(t, 1.0, res.Known.At(rows-1, cols-1))
	assert.Equal(t, 1.0, res.Random.At(rows-1, cols-1))
}

func TestBuilder_Deterministic(t *testing.T) {
	src := universe(t)
	build := func() [][]float64 {
		b, err := NewBuilder(WithIterations(30), WithWorkers(1), WithSeed(99))
		require.NoError(t, err)
		res, err := b.Build(context.Background(), src)
		require.NoError(t, err)
		return res.Table.Rows()
	}
	assert.Equal(t, build(), build())
}

func TestBuilder_ParallelConsumesBudget(t *testing.T) {
	src := universe(t)
	b, err := NewBuilder(WithIterations(101), WithWorkers(4), WithSeed(3))
	require.NoError(t, err)

	res, err := b.Build(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 101, res.Stats.Iterations)
	assert.Equal(t, 101, res.Stats.Known.Pairs+res.Stats.Known.Skipped)
}

func TestBuilder_SkipsBrokenSkeletons(t *testing.T) {
	src := universe(t)
	src.Queries = append(src.Queries, "broken")
	src.KnownPairs = append(src.KnownPairs, Pair{Query: "n0", Target: "gone"})

	// A single point has no segments and cannot be matched against.
	lone, err := skeleton.New("lone", []skeleton.Point{{ID: 0, Pos: r3.Vec{X: 1}}})
	require.NoError(t, err)
	src.Loader.(mapLoader)["lone"] = lone
	src.Targets = append(src.Targets, "lone")

	b, err := NewBuilder(WithIterations(300), WithWorkers(2), WithSeed(5))
	require.NoError(t, err)

	res, err := b.Build(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 300, res.Stats.Iterations)
	assert.Equal(t, 300, res.Stats.Known.Pairs+res.Stats.Known.Skipped)
	assert.Equal(t, 300, res.Stats.Random.Pairs+res.Stats.Random.Skipped)
	assert.Positive(t, res.Stats.Known.Skipped)
	assert.Positive(t, res.Stats.Random.Skipped)
	assert.Subset(t, []string{"broken", "gone", "lone"}, res.Stats.SkippedSkeletons)
	// Each id is reported once, in order, however often it failed.
	assert.IsIncreasing(t, res.Stats.SkippedSkeletons)
}

func TestBuilder_Sample(t *testing.T) {
	src := universe(t)
	b, err := NewBuilder(WithIterations(10), WithWorkers(2))
	require.NoError(t, err)

	c, stats, err := b.Sample(context.Background(), src, Random)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Random.Pairs)
	assert.Zero(t, stats.Known.Pairs)
	assert.Equal(t, float64(stats.Random.Matches), c.Total())

	_, _, err = b.Sample(context.Background(), Source{Loader: src.Loader}, Known)
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestBuilder_NoPairs(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	src := universe(t)
	src.KnownPairs = nil
	_, err = b.Build(context.Background(), src)
	assert.ErrorIs(t, err, ErrNoPairs)
	assert.ErrorIs(t, err, errs.ErrSampling)
}

func TestBuilder_AllSamplesFail(t *testing.T) {
	b, err := NewBuilder(WithIterations(5), WithWorkers(1))
	require.NoError(t, err)

	_, err = b.Build(context.Background(), Source{
		KnownPairs: []Pair{{"a", "b"}},
		Queries:    []string{"a"},
		Targets:    []string{"b"},
		Loader:     mapLoader{},
	})
	assert.ErrorIs(t, err, ErrZeroTotal)
}

func TestBuilder_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b, err := NewBuilder(WithIterations(5), WithProgressInterval(time.Millisecond))
	require.NoError(t, err)
	_, err = b.Build(ctx, universe(t))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewBuilder_Validation(t *testing.T) {
	for name, opt := range map[string]Option{
		"iterations": WithIterations(0),
		"workers":    WithWorkers(-1),
		"epsilon":    WithEpsilon(0),
		"bins":       WithBins([]float64{1, 1}, DefaultAngleBins),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewBuilder(opt)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}
