package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/perplexia/pkg/agent"
	"github.com/Protocol-Lattice/perplexia/pkg/bookmarks"
)

func connect(t *testing.T) *Toolset {
	t.Helper()
	svc := bookmarks.NewService(bookmarks.NewFileStore(filepath.Join(t.TempDir(), "bookmarks.json")))
	ts, err := ConnectInProcess(context.Background(), NewBookmarkServer(svc))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ts.Close() })
	return ts
}

func toolByName(t *testing.T, ts *Toolset, name string) agent.Tool {
	t.Helper()
	for _, tool := range ts.Tools() {
		if tool.Spec().Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not exposed", name)
	return nil
}

func call(t *testing.T, tool agent.Tool, args map[string]any) (string, error) {
	t.Helper()
	resp, err := tool.Invoke(context.Background(), agent.ToolRequest{Arguments: args})
	return resp.Content, err
}

func TestToolsetListsBookmarkTools(t *testing.T) {
	ts := connect(t)
	assert.Equal(t, ServerName, ts.Server())

	names := map[string]bool{}
	for _, tool := range ts.Tools() {
		names[tool.Spec().Name] = true
	}
	assert.Equal(t, map[string]bool{"add_bookmark": true, "get_bookmarks": true, "remove_bookmark": true}, names)

	spec := toolByName(t, ts, "add_bookmark").Spec()
	props, ok := spec.InputSchema["properties"].(map[string]any)
	require.True(t, ok, "schema: %#v", spec.InputSchema)
	assert.Contains(t, props, "urls")
}

func TestBookmarkToolsRoundTrip(t *testing.T) {
	ts := connect(t)
	add := toolByName(t, ts, "add_bookmark")
	get := toolByName(t, ts, "get_bookmarks")
	remove := toolByName(t, ts, "remove_bookmark")

	out, err := call(t, add, map[string]any{"urls": []any{"https://go.dev", "https://go.dev", "https://pkg.go.dev"}})
	require.NoError(t, err)
	assert.Equal(t, "Successfully added 2 new bookmark(s). 1 duplicate(s) skipped.", out)

	out, err = call(t, add, map[string]any{"urls": []any{}})
	require.NoError(t, err)
	assert.Equal(t, "No URLs provided to bookmark", out)

	out, err = call(t, get, nil)
	require.NoError(t, err)
	var list []bookmarks.Bookmark
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "https://go.dev", list[0].URL)

	out, err = call(t, remove, map[string]any{"url": "https://go.dev"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully removed bookmark for: https://go.dev", out)

	out, err = call(t, remove, map[string]any{"url": "https://go.dev"})
	require.NoError(t, err)
	assert.Equal(t, "Bookmark not found for URL: https://go.dev", out)
}

func TestRemoveBookmarkRequiresURL(t *testing.T) {
	ts := connect(t)
	_, err := call(t, toolByName(t, ts, "remove_bookmark"), map[string]any{})
	assert.Error(t, err)
}

func TestConnectStdioRequiresCommand(t *testing.T) {
	_, err := ConnectStdio(context.Background(), "  ", nil)
	assert.Error(t, err)
}
