package minio

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nblast/blobstore"
)

func TestTrimRoot(t *testing.T) {
	assert.Equal(t, "fc/a.swc", trimRoot("skeletons/fc/a.swc", "skeletons/"))
	assert.Equal(t, "fc/a.swc", trimRoot("skeletons/fc/a.swc", "skeletons"))
	assert.Equal(t, "a.swc", trimRoot("a.swc", ""))
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "skeletons/")
	assert.Equal(t, "skeletons/fc/a.swc", s.key("fc/a.swc"))
	assert.Equal(t, "skeletons", s.key(""))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	client, err := NewClient("localhost:9000", "minioadmin", "minioadmin", false)
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-nblast"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("0 1 0 0 0 1 -1\n")
	require.NoError(t, store.Put(ctx, "fc/root.swc", data))

	blob, err := store.Open(ctx, "fc/root.swc")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())
	got, err := io.ReadAll(blobstore.NewReader(blob))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "fc/")
	require.NoError(t, err)
	assert.Contains(t, names, "fc/root.swc")

	require.NoError(t, store.Delete(ctx, "fc/root.swc"))
	_, err = store.Open(ctx, "fc/root.swc")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
