package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for names that escape the store root.
var ErrInvalidName = errors.New("blobstore: invalid blob name")

// Store is an abstraction over a flat namespace of immutable blobs
// (skeleton files, score tables, pointers). Names use forward slashes.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// NewReader returns a sequential reader over b.
func NewReader(b Blob) *io.SectionReader {
	return io.NewSectionReader(b, 0, b.Size())
}

// ReadAll reads the complete content of the named blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return bytes.Clone(data), nil
	}

	data := make([]byte, b.Size())
	if _, err := io.ReadFull(NewReader(b), data); err != nil {
		return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	return data, nil
}

// BytesBlob is a Blob over an in-memory byte slice.
type BytesBlob struct {
	r *bytes.Reader
}

// NewBytesBlob wraps data. The slice must not be modified afterwards.
func NewBytesBlob(data []byte) *BytesBlob {
	return &BytesBlob{r: bytes.NewReader(data)}
}

// ReadAt implements io.ReaderAt.
func (b *BytesBlob) ReadAt(p []byte, off int64) (int, error) { return b.r.ReadAt(p, off) }

// Size implements Blob.
func (b *BytesBlob) Size() int64 { return b.r.Size() }

// Close implements io.Closer.
func (b *BytesBlob) Close() error { return nil }
