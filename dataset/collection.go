package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/nblast/blobstore"
	"github.com/hupe1980/nblast/internal/cache"
	"github.com/hupe1980/nblast/internal/errs"
	"github.com/hupe1980/nblast/internal/resource"
	"github.com/hupe1980/nblast/skeleton"
)

// PointCost is the estimated resident size of one point in bytes, used to
// charge cached skeletons against the cache capacity.
const PointCost = 128

// DefaultCacheBytes is the default skeleton cache capacity.
const DefaultCacheBytes = 256 << 20

type collectionOptions struct {
	cacheBytes int64
	rc         *resource.Controller
	logger     *slog.Logger
	skeleton   []skeleton.Option
}

// Option configures a Collection.
type Option func(*collectionOptions)

// WithCacheBytes sets the skeleton cache capacity. Zero disables caching.
func WithCacheBytes(n int64) Option {
	return func(o *collectionOptions) { o.cacheBytes = n }
}

// WithController limits memory, load concurrency and read throughput.
func WithController(rc *resource.Controller) Option {
	return func(o *collectionOptions) { o.rc = rc }
}

// WithLogger sets the logger for load events.
func WithLogger(l *slog.Logger) Option {
	return func(o *collectionOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSkeletonOptions forwards options to skeleton.Read, for example
// skeleton.WithContiguousIDs.
func WithSkeletonOptions(opts ...skeleton.Option) Option {
	return func(o *collectionOptions) { o.skeleton = append(o.skeleton, opts...) }
}

// Collection loads skeletons by id from a store.
// It is safe for concurrent use.
type Collection struct {
	store   blobstore.Store
	entries []Entry
	names   map[string]string
	opts    collectionOptions
	cache   *cache.LRU[string, *skeleton.Skeleton]
	group   singleflight.Group
}

// Open scans prefix and returns a collection over the skeletons found.
func Open(ctx context.Context, store blobstore.Store, prefix string, optFns ...Option) (*Collection, error) {
	entries, err := Scan(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	return NewCollection(store, entries, optFns...), nil
}

// NewCollection returns a collection over entries.
func NewCollection(store blobstore.Store, entries []Entry, optFns ...Option) *Collection {
	opts := collectionOptions{
		cacheBytes: DefaultCacheBytes,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[e.ID] = e.Name
	}

	return &Collection{
		store:   store,
		entries: append([]Entry(nil), entries...),
		names:   names,
		opts:    opts,
		cache:   cache.NewLRU[string, *skeleton.Skeleton](opts.cacheBytes, opts.rc),
	}
}

// IDs returns the skeleton ids in sorted order.
func (c *Collection) IDs() []string { return IDs(c.entries) }

// Len returns the number of skeletons.
func (c *Collection) Len() int { return len(c.entries) }

// Has reports whether id is part of the collection.
func (c *Collection) Has(id string) bool {
	_, ok := c.names[id]
	return ok
}

// CacheStats returns cache hit and miss counts.
func (c *Collection) CacheStats() (hits, misses int64) { return c.cache.Stats() }

// Load returns the skeleton with the given id. Concurrent loads of the same
// id share one read.
func (c *Collection) Load(ctx context.Context, id string) (*skeleton.Skeleton, error) {
	name, ok := c.names[id]
	if !ok {
		return nil, &ErrUnknownID{ID: id}
	}
	if sk, ok := c.cache.Get(id); ok {
		return sk, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		if sk, ok := c.cache.Get(id); ok {
			return sk, nil
		}
		sk, err := c.read(ctx, id, name)
		if err != nil {
			return nil, err
		}
		c.cache.Set(id, sk, int64(sk.Len())*PointCost)
		return sk, nil
	})
	if err != nil {
		c.opts.logger.Warn("skeleton load failed", "id", id, "blob", name, "error", err)
		return nil, err
	}
	return v.(*skeleton.Skeleton), nil
}

func (c *Collection) read(ctx context.Context, id, name string) (*skeleton.Skeleton, error) {
	if err := c.opts.rc.AcquireLoad(ctx); err != nil {
		return nil, err
	}
	defer c.opts.rc.ReleaseLoad()

	b, err := c.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrInput, name, err)
	}
	defer b.Close()

	if err := c.opts.rc.AcquireRead(ctx, int(b.Size())); err != nil {
		return nil, err
	}

	sk, err := skeleton.Read(blobstore.NewReader(b), id, c.opts.skeleton...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	c.opts.logger.Debug("skeleton loaded", "id", id, "points", sk.Len())
	return sk, nil
}

// Union resolves ids against several collections in order.
type Union []*Collection

// Load returns the skeleton from the first collection that has id.
func (u Union) Load(ctx context.Context, id string) (*skeleton.Skeleton, error) {
	for _, c := range u {
		if c.Has(id) {
			return c.Load(ctx, id)
		}
	}
	return nil, &ErrUnknownID{ID: id}
}
