// Package mcp exposes the bookmark service as an MCP server and adapts the
// tools of any MCP server to the agent's Tool interface.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Protocol-Lattice/perplexia/pkg/bookmarks"
)

const (
	ServerName    = "Bookmarking"
	ServerVersion = "1.0.0"
)

// NewBookmarkServer registers add_bookmark, get_bookmarks and remove_bookmark
// backed by svc.
func NewBookmarkServer(svc *bookmarks.Service) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("add_bookmark",
		mcp.WithDescription("Bookmark one or more URLs. Duplicates are skipped."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("URLs to bookmark"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		msg, err := svc.Add(ctx, req.GetStringSlice("urls", nil))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(msg), nil
	})

	s.AddTool(mcp.NewTool("get_bookmarks",
		mcp.WithDescription("List every bookmark as a JSON array of {url, created_at}."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := svc.ListJSON(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	})

	s.AddTool(mcp.NewTool("remove_bookmark",
		mcp.WithDescription("Remove the bookmark for a URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("URL to remove")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		msg, err := svc.Remove(ctx, url)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(msg), nil
	})

	return s
}

// ServeStdio runs the bookmark server on stdin/stdout until the input closes
// or the process is signalled.
func ServeStdio(svc *bookmarks.Service) error {
	return server.ServeStdio(NewBookmarkServer(svc))
}
