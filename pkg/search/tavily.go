// Package search is the web search boundary, backed by the Tavily API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultMaxResults = 5
)

var ErrMissingAPIKey = errors.New("missing Tavily API key")

// Result is one search hit.
type Result struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// TavilyClient calls POST /search.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	client     *http.Client
}

// NewTavilyClient falls back to TAVILY_API_KEY when apiKey is empty and to
// DefaultBaseURL when baseURL is empty.
func NewTavilyClient(apiKey, baseURL string, maxResults int) (*TavilyClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &TavilyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: maxResults,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// Search returns at most maxResults hits; a non-positive maxResults uses the
// client default.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is empty")
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	body, err := json.Marshal(searchRequest{APIKey: c.apiKey, Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tavily search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out searchResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("tavily search: decode response: %w", err)
	}
	if len(out.Results) > maxResults {
		out.Results = out.Results[:maxResults]
	}
	return out.Results, nil
}

// Format renders results for inclusion in a prompt.
func Format(results []Result) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "Result %d:\n", i+1)
		fmt.Fprintf(&sb, "Title: %s\n", orNA(r.Title))
		fmt.Fprintf(&sb, "Content: %s\n", orNA(r.Content))
		fmt.Fprintf(&sb, "URL: %s\n\n", orNA(r.URL))
	}
	return sb.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

var _ Searcher = (*TavilyClient)(nil)
