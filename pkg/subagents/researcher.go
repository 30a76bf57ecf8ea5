// Package subagents holds specialist agents the coordinator can delegate to.
package subagents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/perplexia/pkg/agent"
	"github.com/Protocol-Lattice/perplexia/pkg/models"
	"github.com/Protocol-Lattice/perplexia/pkg/search"
)

const specialistPersona = `You are a Specialized Research Agent responsible for thoroughly researching a specific topic section.

Process:
1. Analyze the research question and description
2. Read the web search results provided below
3. Synthesize findings into a comprehensive section
4. Include proper citations to your sources

Your response should be:
- Thorough (at least 500 words)
- Well-structured with subsections
- Based on factual information from the search results, not made up
- Include the source URLs you rely on, one per line

Always critically evaluate information and ensure you cover the topic comprehensively.`

// Finding is the researched content of one section.
type Finding struct {
	Content string
	Sources []string
}

// Researcher searches the web for a section and drafts it from the results.
type Researcher struct {
	model      models.Agent
	searcher   search.Searcher
	maxResults int
}

// NewResearcher builds a Researcher. searcher may be nil, in which case the
// model drafts from its own knowledge.
func NewResearcher(model models.Agent, searcher search.Searcher, maxResults int) *Researcher {
	return &Researcher{model: model, searcher: searcher, maxResults: maxResults}
}

func (r *Researcher) Name() string { return "researcher" }
func (r *Researcher) Description() string {
	return "Researches a topic on the web and drafts a cited section."
}

// Run researches input as both the title and the description.
func (r *Researcher) Run(ctx context.Context, input string) (string, error) {
	f, err := r.Research(ctx, input, input)
	if err != nil {
		return "", err
	}
	return f.Content, nil
}

// Research drafts the section titled title.
func (r *Researcher) Research(ctx context.Context, title, description string) (Finding, error) {
	if r.model == nil {
		return Finding{}, fmt.Errorf("researcher subagent missing model")
	}

	results := "No search results available."
	if r.searcher != nil {
		hits, err := r.searcher.Search(ctx, title, r.maxResults)
		if err != nil {
			return Finding{}, fmt.Errorf("search %q: %w", title, err)
		}
		if len(hits) > 0 {
			results = strings.TrimSpace(search.Format(hits))
		}
	}

	var prompt strings.Builder
	prompt.WriteString(specialistPersona)
	prompt.WriteString("\n\nResearch the following topic thoroughly:\n\n")
	fmt.Fprintf(&prompt, "Topic: %s\n\nDescription: %s\n\n", strings.TrimSpace(title), strings.TrimSpace(description))
	prompt.WriteString("Web search results:\n")
	prompt.WriteString(results)
	prompt.WriteString("\n\nProvide a detailed analysis with proper citations to sources.\n")

	content, err := models.Complete(ctx, r.model, prompt.String())
	if err != nil {
		return Finding{}, err
	}
	content = strings.TrimSpace(content)
	return Finding{Content: content, Sources: ExtractSources(content)}, nil
}

// ExtractSources returns the trimmed lines that look like they cite a URL.
func ExtractSources(content string) []string {
	var sources []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "http") && strings.Contains(line, "://") {
			sources = append(sources, strings.TrimSpace(line))
		}
	}
	return sources
}

var _ agent.SubAgent = (*Researcher)(nil)
