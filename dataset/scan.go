package dataset

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/hupe1980/nblast/blobstore"
)

// Ext is the skeleton file extension recognized by Scan.
const Ext = ".swc"

// Entry is one skeleton blob.
type Entry struct {
	// ID is the blob basename without extension.
	ID string
	// Name is the full blob name.
	Name string
}

// Scan lists the skeleton blobs under prefix, sorted by id.
func Scan(ctx context.Context, store blobstore.Store, prefix string) ([]Entry, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(names))
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if !strings.EqualFold(path.Ext(name), Ext) {
			continue
		}
		id := NormalizeID(name)
		if first, ok := seen[id]; ok {
			return nil, &ErrDuplicateID{ID: id, First: first, Other: name}
		}
		seen[id] = name
		entries = append(entries, Entry{ID: id, Name: name})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// IDs returns the ids of entries in order.
func IDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// NormalizeID maps a path, blob name or bare identifier to a skeleton id:
// surrounding quotes and directories are dropped, as is a .swc extension.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	if ext := path.Ext(s); strings.EqualFold(ext, Ext) {
		s = s[:len(s)-len(ext)]
	}
	return s
}
