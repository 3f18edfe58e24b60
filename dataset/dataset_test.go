package dataset

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nblast/blobstore"
	"github.com/hupe1980/nblast/internal/errs"
	"github.com/hupe1980/nblast/internal/resource"
	"github.com/hupe1980/nblast/matrix"
	"github.com/hupe1980/nblast/testutil"
)

func seed(t *testing.T, store blobstore.Store, names ...string) {
	t.Helper()
	rng := testutil.NewRNG(1)
	for _, name := range names {
		sk := rng.RandomSkeleton(NormalizeID(name), 12, 3)
		require.NoError(t, store.Put(context.Background(), name, []byte(testutil.SWC(sk))))
	}
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	seed(t, store, "neurons/b.swc", "neurons/sub/a.SWC", "neurons/readme.txt", "other/c.swc")

	entries, err := Scan(ctx, store, "neurons/")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{ID: "a", Name: "neurons/sub/a.SWC"},
		{ID: "b", Name: "neurons/b.swc"},
	}, entries)
	assert.Equal(t, []string{"a", "b"}, IDs(entries))
}

func TestScan_DuplicateID(t *testing.T) {
	store := blobstore.NewMemoryStore()
	seed(t, store, "x/a.swc", "y/a.swc")

	_, err := Scan(context.Background(), store, "")
	var dup *ErrDuplicateID
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.ID)
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestNormalizeID(t *testing.T) {
	for in, want := range map[string]string{
		"1234":              "1234",
		" 1234.swc ":        "1234",
		`"data/n/1234.SWC"`: "1234",
		`C:\data\5678.swc`:  "5678",
		"neuron.v2":         "neuron.v2",
		"'quoted'":          "quoted",
	} {
		assert.Equal(t, want, NormalizeID(in), in)
	}
}

func TestReadKnownMatches(t *testing.T) {
	in := strings.Join([]string{
		"",
		"query,target,comment",
		"1001,2001,good",
		"1002\t2002",
		"  ",
		"data/1003.swc 2003.swc",
	}, "\n")

	pairs, err := ReadKnownMatches(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []matrix.Pair{
		{Query: "1001", Target: "2001"},
		{Query: "1002", Target: "2002"},
		{Query: "1003", Target: "2003"},
	}, pairs)
}

func TestReadKnownMatches_Malformed(t *testing.T) {
	_, err := ReadKnownMatches(strings.NewReader("q,t\n1,2\nlonely\n"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.ErrorIs(t, err, errs.ErrInput)

	pairs, err := ReadKnownMatches(strings.NewReader("only a header\n"))
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestCollection_Load(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	seed(t, store, "n/a.swc", "n/b.swc")
	require.NoError(t, store.Put(ctx, "n/bad.swc", []byte("1 2 x 0 0 1 -1\n")))

	c, err := Open(ctx, store, "n/")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Has("a"))

	sk, err := c.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", sk.Name())
	assert.Equal(t, 12, sk.Len())

	again, err := c.Load(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, sk, again)
	hits, misses := c.CacheStats()
	assert.Positive(t, hits)
	assert.Positive(t, misses)

	_, err = c.Load(ctx, "bad")
	assert.ErrorIs(t, err, errs.ErrInput)

	_, err = c.Load(ctx, "missing")
	var unknown *ErrUnknownID
	assert.True(t, errors.As(err, &unknown))
}

func TestCollection_MissingBlob(t *testing.T) {
	store := blobstore.NewMemoryStore()
	c := NewCollection(store, []Entry{{ID: "ghost", Name: "ghost.swc"}})

	_, err := c.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, errs.ErrInput)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCollection_ConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	seed(t, store, "a.swc", "b.swc", "c.swc")

	rc := resource.NewController(resource.Config{MaxConcurrentLoads: 2, MemoryLimitBytes: 1 << 20})
	c, err := Open(ctx, store, "", WithController(rc))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := c.IDs()[i%3]
			sk, err := c.Load(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, id, sk.Name())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(3*12*PointCost), rc.MemoryUsage())
}

func TestCollection_NoCache(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	seed(t, store, "a.swc")

	c, err := Open(ctx, store, "", WithCacheBytes(0))
	require.NoError(t, err)

	first, err := c.Load(ctx, "a")
	require.NoError(t, err)
	second, err := c.Load(ctx, "a")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestUnion(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	seed(t, store, "q/a.swc", "t/b.swc")

	q, err := Open(ctx, store, "q/")
	require.NoError(t, err)
	tg, err := Open(ctx, store, "t/")
	require.NoError(t, err)

	u := Union{q, tg}
	_, err = u.Load(ctx, "a")
	require.NoError(t, err)
	_, err = u.Load(ctx, "b")
	require.NoError(t, err)
	_, err = u.Load(ctx, "c")
	assert.ErrorIs(t, err, errs.ErrInput)
}
