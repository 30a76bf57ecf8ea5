package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Protocol-Lattice/perplexia/pkg/bookmarks"
	"github.com/Protocol-Lattice/perplexia/pkg/mcp"
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Manage saved URLs in the configured bookmark store",
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add [url...]",
	Short: "Bookmark one or more URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: withBookmarks(func(cmd *cobra.Command, svc *bookmarks.Service, args []string) error {
		msg, err := svc.Add(cmd.Context(), args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}),
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all bookmarks as JSON",
	Args:  cobra.NoArgs,
	RunE: withBookmarks(func(cmd *cobra.Command, svc *bookmarks.Service, args []string) error {
		out, err := svc.ListJSON(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}),
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:   "remove [url]",
	Short: "Remove a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: withBookmarks(func(cmd *cobra.Command, svc *bookmarks.Service, args []string) error {
		msg, err := svc.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}),
}

var bookmarksServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bookmark tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: withBookmarks(func(cmd *cobra.Command, svc *bookmarks.Service, args []string) error {
		logger.Info("serving bookmark tools over stdio", zap.String("backend", cfg.Bookmarks.Backend))
		return mcp.ServeStdio(svc)
	}),
}

// withBookmarks opens the configured store for the duration of fn.
func withBookmarks(fn func(*cobra.Command, *bookmarks.Service, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("close bookmark store", zap.Error(err))
			}
		}()
		return fn(cmd, bookmarks.NewService(store), args)
	}
}

func openStore(ctx context.Context) (bookmarks.Store, error) {
	store, err := bookmarks.Open(ctx, cfg.Bookmarks)
	if err != nil {
		return nil, fmt.Errorf("open %s bookmark store: %w", cfg.Bookmarks.Backend, err)
	}
	return store, nil
}

func init() {
	bookmarksCmd.AddCommand(bookmarksAddCmd, bookmarksListCmd, bookmarksRemoveCmd, bookmarksServeCmd)
}
