// Package catalog tracks which score table is current.
//
// Table builds are published as immutable blobs; a Catalog holds a versioned
// pointer to the one queries should use. StoreCatalog keeps the pointer in a
// blob next to the tables, and blobstore/s3.DDBCatalog keeps it in DynamoDB
// for writers that need compare-and-swap semantics.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/nblast/blobstore"
)

// ErrNoCurrent is returned when nothing has been published yet.
var ErrNoCurrent = errors.New("catalog: no current table")

// CurrentName is the pointer blob used by StoreCatalog.
const CurrentName = "CURRENT"

// Entry is one published version.
type Entry struct {
	Version uint64
	Name    string
}

// Catalog resolves and publishes the current table.
type Catalog interface {
	// Current returns the latest published entry.
	Current(ctx context.Context) (Entry, error)
	// Publish makes name the current table and returns the new entry.
	Publish(ctx context.Context, name string) (Entry, error)
}

var _ Catalog = (*StoreCatalog)(nil)

// StoreCatalog keeps the pointer in a blob. Publishing is a read followed by
// a write, so concurrent writers must be serialized externally.
type StoreCatalog struct {
	store blobstore.Store
	key   string
}

// NewStoreCatalog returns a catalog whose pointer lives at prefix/CURRENT.
func NewStoreCatalog(store blobstore.Store, prefix string) *StoreCatalog {
	key := CurrentName
	if prefix != "" {
		key = strings.TrimSuffix(prefix, "/") + "/" + CurrentName
	}
	return &StoreCatalog{store: store, key: key}
}

// Current implements Catalog.
func (c *StoreCatalog) Current(ctx context.Context) (Entry, error) {
	data, err := blobstore.ReadAll(ctx, c.store, c.key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return Entry{}, ErrNoCurrent
		}
		return Entry{}, err
	}
	return parseEntry(string(data))
}

// Publish implements Catalog.
func (c *StoreCatalog) Publish(ctx context.Context, name string) (Entry, error) {
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return Entry{}, fmt.Errorf("catalog: invalid table name %q", name)
	}

	cur, err := c.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoCurrent) {
		return Entry{}, err
	}

	next := Entry{Version: cur.Version + 1, Name: name}
	if err := c.store.Put(ctx, c.key, []byte(formatEntry(next))); err != nil {
		return Entry{}, err
	}
	return next, nil
}

func formatEntry(e Entry) string {
	return strconv.FormatUint(e.Version, 10) + " " + e.Name + "\n"
}

func parseEntry(s string) (Entry, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Entry{}, fmt.Errorf("catalog: malformed pointer %q", s)
	}
	v, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: malformed version %q: %w", fields[0], err)
	}
	return Entry{Version: v, Name: fields[1]}, nil
}
