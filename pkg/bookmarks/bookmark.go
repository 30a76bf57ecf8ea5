// Package bookmarks stores bookmarked URLs behind a small Store interface with
// file, SQLite, Postgres, MongoDB and Neo4j backends.
package bookmarks

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown bookmarks backend")

// Bookmark is one saved URL.
type Bookmark struct {
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AddResult counts what an Add call did. Skipped includes URLs repeated
// within the same call.
type AddResult struct {
	Added   int
	Skipped int
}

// Store persists bookmarks. Implementations deduplicate by URL and stamp all
// URLs of one Add call with the same time.
type Store interface {
	Add(ctx context.Context, urls []string) (AddResult, error)
	List(ctx context.Context) ([]Bookmark, error)
	Remove(ctx context.Context, url string) (bool, error)
	Close() error
}

// fresh returns the URLs not in existing, keeping first occurrences only.
func fresh(existing map[string]struct{}, urls []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(urls))
	for u := range existing {
		seen[u] = struct{}{}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// uniq drops repeated URLs within one batch, keeping order.
func uniq(urls []string) []string {
	return fresh(nil, urls)
}
