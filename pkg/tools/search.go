package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/perplexia/pkg/agent"
	"github.com/Protocol-Lattice/perplexia/pkg/search"
)

// WeatherResults is how many hits the weather lookup asks for.
const WeatherResults = 3

// WeatherTool answers current-weather questions through web search.
type WeatherTool struct {
	Searcher search.Searcher
}

func NewWeatherTool(s search.Searcher) *WeatherTool { return &WeatherTool{Searcher: s} }

func (w *WeatherTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_weather",
		Description: "Looks up the current weather for a location.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City or place name.",
				},
			},
			"required": []any{"location"},
		},
	}
}

func (w *WeatherTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	location, ok := agent.StringArg(req.Arguments, "location")
	location = strings.TrimSpace(location)
	if !ok || location == "" {
		return agent.ToolResponse{}, fmt.Errorf("missing 'location' argument")
	}
	query := fmt.Sprintf("what is the current weather temperature in %s right now", location)
	results, err := w.Searcher.Search(ctx, query, WeatherResults)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("weather search: %w", err)
	}
	if len(results) == 0 {
		return agent.ToolResponse{Content: "Could not find weather information for " + location}, nil
	}
	return agent.ToolResponse{
		Content:  results[0].Content,
		Metadata: map[string]string{"source": results[0].URL},
	}, nil
}

// WebSearchTool returns formatted search results for a query.
type WebSearchTool struct {
	Searcher   search.Searcher
	MaxResults int
}

func NewWebSearchTool(s search.Searcher, maxResults int) *WebSearchTool {
	return &WebSearchTool{Searcher: s, MaxResults: maxResults}
}

func (t *WebSearchTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "web_search",
		Description: "Searches the web and returns titles, snippets and URLs.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query.",
				},
			},
			"required": []any{"query"},
		},
	}
}

func (t *WebSearchTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	query, ok := agent.StringArg(req.Arguments, "query")
	query = strings.TrimSpace(query)
	if !ok || query == "" {
		return agent.ToolResponse{}, fmt.Errorf("missing 'query' argument")
	}
	results, err := t.Searcher.Search(ctx, query, t.MaxResults)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("web search: %w", err)
	}
	if len(results) == 0 {
		return agent.ToolResponse{Content: "No results found for " + query}, nil
	}
	return agent.ToolResponse{Content: strings.TrimSpace(search.Format(results))}, nil
}

var (
	_ agent.Tool = (*WeatherTool)(nil)
	_ agent.Tool = (*WebSearchTool)(nil)
)
