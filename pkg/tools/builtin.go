package tools

import (
	"github.com/Protocol-Lattice/perplexia/pkg/agent"
	"github.com/Protocol-Lattice/perplexia/pkg/router"
	"github.com/Protocol-Lattice/perplexia/pkg/search"
)

// Builtin returns the default tool set. Search-backed tools are left out
// when searcher is nil.
func Builtin(runner router.SnippetRunner, searcher search.Searcher, maxResults int) []agent.Tool {
	out := []agent.Tool{&CalculatorTool{}}
	if runner != nil {
		out = append(out, NewDatetimeTool(runner))
	}
	if searcher != nil {
		out = append(out, NewWeatherTool(searcher), NewWebSearchTool(searcher, maxResults))
	}
	return out
}
