package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func TestStore_PutOpenList(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "fc/b.swc", []byte("bbb")))
			require.NoError(t, s.Put(ctx, "fc/a.swc", []byte("a")))
			require.NoError(t, s.Put(ctx, "tables/default.tsv", []byte("table")))

			b, err := s.Open(ctx, "fc/b.swc")
			require.NoError(t, err)
			assert.Equal(t, int64(3), b.Size())
			data, err := io.ReadAll(NewReader(b))
			require.NoError(t, err)
			assert.Equal(t, "bbb", string(data))
			require.NoError(t, b.Close())

			names, err := s.List(ctx, "fc/")
			require.NoError(t, err)
			assert.Equal(t, []string{"fc/a.swc", "fc/b.swc"}, names)

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			got, err := ReadAll(ctx, s, "tables/default.tsv")
			require.NoError(t, err)
			assert.Equal(t, "table", string(got))
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "CURRENT", []byte("v1")))
			require.NoError(t, s.Put(ctx, "CURRENT", []byte("v2-longer")))

			got, err := ReadAll(ctx, s, "CURRENT")
			require.NoError(t, err)
			assert.Equal(t, "v2-longer", string(got))
		})
	}
}

func TestStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "gone", []byte("x")))
			require.NoError(t, s.Delete(ctx, "gone"))
			require.NoError(t, s.Delete(ctx, "gone"), "deleting twice is fine")

			_, err = ReadAll(ctx, s, "gone")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", data))
	data[0] = 'z'

	got, err := ReadAll(ctx, s, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLocalStore_InvalidName(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	assert.ErrorIs(t, s.Put(ctx, "../escape", nil), ErrInvalidName)
	_, err := s.Open(ctx, "/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	s := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_NoTempLeftovers(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStore(root)

	require.NoError(t, s.Put(ctx, "out/table.tsv", []byte("x")))

	entries, err := os.ReadDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "table.tsv", entries[0].Name())
	assert.Equal(t, root, s.Root())
}

func TestLocalStore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewLocalStore(t.TempDir())
	_, err := s.Open(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
