package skeleton

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/nblast/internal/errs"
)

func pt(id int, x, y, z float64, parent int) Point {
	p := Point{ID: id, Pos: r3.Vec{X: x, Y: y, Z: z}}
	if parent >= 0 {
		p.Parent = ParentOf(parent)
	}
	return p
}

func TestNew(t *testing.T) {
	sk, err := New("chain", []Point{
		pt(0, 0, 0, 0, -1),
		pt(1, 2, 0, 0, 0),
		pt(2, 2, 4, 0, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, "chain", sk.Name())
	assert.Equal(t, 3, sk.Len())

	p, ok := sk.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 2, Y: 4}, p.Pos)

	parent, ok := sk.Parent(p)
	require.True(t, ok)
	assert.Equal(t, 1, parent.ID)

	_, ok = sk.Parent(sk.At(0))
	assert.False(t, ok)

	segs := sk.Segments()
	require.Len(t, segs, 2)

	assert.Equal(t, 1, segs[0].ID)
	assert.Equal(t, 0, segs[0].ParentID)
	assert.Equal(t, r3.Vec{X: -2}, segs[0].Vector)
	assert.Equal(t, r3.Vec{X: 1}, segs[0].Midpoint)

	assert.Equal(t, 2, segs[1].ID)
	assert.Equal(t, r3.Vec{Y: -4}, segs[1].Vector)
	assert.Equal(t, r3.Vec{X: 2, Y: 2}, segs[1].Midpoint)

	assert.Equal(t, []r3.Vec{{X: 1}, {X: 2, Y: 2}}, sk.Midpoints())
}

func TestNew_NonContiguousIDs(t *testing.T) {
	// ids starting at 1 with a gap resolve through the id map.
	sk, err := New("gappy", []Point{
		pt(1, 0, 0, 0, -1),
		pt(5, 0, 0, 2, 1),
		pt(9, 0, 2, 2, 5),
	})
	require.NoError(t, err)

	segs := sk.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, r3.Vec{Z: 1}, segs[0].Midpoint)
	assert.Equal(t, 5, segs[1].ParentID)

	_, err = New("gappy", sk.Points(), WithContiguousIDs())
	var nc *ErrNonContiguous
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, 1, nc.ID)
	assert.Equal(t, 0, nc.Position)
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestNew_ParentBeforeDefinition(t *testing.T) {
	sk, err := New("forward", []Point{
		pt(0, 0, 0, 0, 1),
		pt(1, 4, 0, 0, -1),
	})
	require.NoError(t, err)
	require.Len(t, sk.Segments(), 1)
	assert.Equal(t, r3.Vec{X: 2}, sk.Segments()[0].Midpoint)
}

func TestNew_Errors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		_, err := New("dup", []Point{pt(0, 0, 0, 0, -1), pt(0, 1, 0, 0, -1)})
		var de *ErrDuplicateID
		require.True(t, errors.As(err, &de))
		assert.Equal(t, 0, de.ID)
		assert.ErrorIs(t, err, errs.ErrInput)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := New("orphan", []Point{pt(0, 0, 0, 0, -1), pt(1, 1, 0, 0, 7)})
		var up *ErrUnknownParent
		require.True(t, errors.As(err, &up))
		assert.Equal(t, 1, up.ID)
		assert.Equal(t, 7, up.Parent)
	})

	t.Run("negative id", func(t *testing.T) {
		_, err := New("neg", []Point{{ID: -2}})
		assert.ErrorIs(t, err, errs.ErrInput)
	})
}

func TestSkeleton_RootOnly(t *testing.T) {
	sk, err := New("root", []Point{pt(0, 1, 1, 1, -1)})
	require.NoError(t, err)
	assert.Empty(t, sk.Segments())
	assert.Empty(t, sk.Midpoints())
}

func TestSkeleton_PointsIsCopy(t *testing.T) {
	sk, err := New("copy", []Point{pt(0, 1, 1, 1, -1)})
	require.NoError(t, err)

	pts := sk.Points()
	pts[0].Pos = r3.Vec{}
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, sk.At(0).Pos)
}

func TestSkeleton_ConcurrentSegments(t *testing.T) {
	sk, err := New("c", []Point{pt(0, 0, 0, 0, -1), pt(1, 1, 0, 0, 0)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, sk.Segments(), 1)
		}()
	}
	wg.Wait()
}

func TestRead(t *testing.T) {
	src := strings.Join([]string{
		"# generated by test",
		"",
		"1 1 0 0 0 1 -1",
		"2 3 0 0 10 1 1",
		"   3 3 0 10 10 1 2   ",
	}, "\n")

	sk, err := Read(strings.NewReader(src), "sample")
	require.NoError(t, err)
	assert.Equal(t, 3, sk.Len())
	assert.Len(t, sk.Segments(), 2)
}

func TestRead_Errors(t *testing.T) {
	t.Run("line number", func(t *testing.T) {
		_, err := Read(strings.NewReader("# hdr\n0 1 0 0 0 1 -1\n1 1 0 bad 0 1 0\n"), "bad")
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 3, pe.Line)
		assert.Equal(t, "y", pe.Field)
		assert.Contains(t, pe.Error(), "line 3")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Read(strings.NewReader("# only comments\n"), "empty")
		assert.ErrorIs(t, err, ErrEmpty)
		assert.ErrorIs(t, err, errs.ErrDegenerate)
	})

	t.Run("contiguous", func(t *testing.T) {
		_, err := Read(strings.NewReader("1 1 0 0 0 1 -1\n"), "one", WithContiguousIDs())
		var nc *ErrNonContiguous
		assert.True(t, errors.As(err, &nc))
	})
}

func TestReadFile(t *testing.T) {
	_, err := ReadFile("testdata/does-not-exist.swc")
	assert.ErrorIs(t, err, errs.ErrInput)

	assert.Equal(t, "fru-M-1", NameFromPath("/data/fc/fru-M-1.swc"))
	assert.Equal(t, "plain", NameFromPath("plain"))
}
