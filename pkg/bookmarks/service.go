package bookmarks

import (
	"context"
	"encoding/json"
	"fmt"
)

// Service wraps a Store with the user-facing messages shared by the CLI and
// the MCP server.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) Add(ctx context.Context, urls []string) (string, error) {
	if len(urls) == 0 {
		return "No URLs provided to bookmark", nil
	}
	res, err := s.store.Add(ctx, urls)
	if err != nil {
		return "", fmt.Errorf("add bookmarks: %w", err)
	}
	return fmt.Sprintf("Successfully added %d new bookmark(s). %d duplicate(s) skipped.", res.Added, res.Skipped), nil
}

func (s *Service) List(ctx context.Context) ([]Bookmark, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	if list == nil {
		list = []Bookmark{}
	}
	return list, nil
}

// ListJSON renders every bookmark as an indented JSON array.
func (s *Service) ListJSON(ctx context.Context) (string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Service) Remove(ctx context.Context, url string) (string, error) {
	removed, err := s.store.Remove(ctx, url)
	if err != nil {
		return "", fmt.Errorf("remove bookmark: %w", err)
	}
	if !removed {
		return "Bookmark not found for URL: " + url, nil
	}
	return "Successfully removed bookmark for: " + url, nil
}
