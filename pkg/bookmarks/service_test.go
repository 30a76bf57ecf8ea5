package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Add(context.Context, []string) (AddResult, error) { return AddResult{}, f.err }
func (f failingStore) List(context.Context) ([]Bookmark, error)         { return nil, f.err }
func (f failingStore) Remove(context.Context, string) (bool, error)     { return false, f.err }
func (f failingStore) Close() error                                     { return nil }

func TestServiceMessages(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewFileStore(filepath.Join(t.TempDir(), "bookmarks.json")))

	msg, err := svc.Add(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "No URLs provided to bookmark", msg)

	msg, err = svc.Add(ctx, []string{"https://go.dev", "https://go.dev", "https://pkg.go.dev"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully added 2 new bookmark(s). 1 duplicate(s) skipped.", msg)

	msg, err = svc.Remove(ctx, "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "Successfully removed bookmark for: https://go.dev", msg)

	msg, err = svc.Remove(ctx, "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "Bookmark not found for URL: https://go.dev", msg)

	out, err := svc.ListJSON(ctx)
	require.NoError(t, err)
	var decoded []Bookmark
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "https://pkg.go.dev", decoded[0].URL)
}

func TestServiceListEmptyIsArray(t *testing.T) {
	svc := NewService(NewFileStore(filepath.Join(t.TempDir(), "missing.json")))
	out, err := svc.ListJSON(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestServiceWrapsStoreErrors(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(failingStore{err: boom})
	ctx := context.Background()

	_, err := svc.Add(ctx, []string{"https://x"})
	assert.ErrorIs(t, err, boom)
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Remove(ctx, "https://x")
	assert.ErrorIs(t, err, boom)
}
