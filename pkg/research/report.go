package research

import (
	"fmt"
	"strings"
)

// Section is one researched part of the detailed analysis.
type Section struct {
	Title       string
	Description string
	Content     string
	Sources     []string
	Completed   bool
}

// Report is the assembled research output.
type Report struct {
	Topic            string
	ExecutiveSummary string
	KeyFindings      string
	Limitations      string
	Sections         []Section
}

// FormatReport renders r as Markdown. Missing summary parts render as N/A
// and sections without content are left out.
func FormatReport(r *Report) string {
	parts := []string{
		"# Research Report",
		"## Executive Summary\n" + orNA(r.ExecutiveSummary),
		"## Key Findings\n" + orNA(r.KeyFindings),
		"## Detailed Analysis",
	}
	for _, s := range r.Sections {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("### %s\n%s", s.Title, s.Content))
		if len(s.Sources) > 0 {
			lines := make([]string, 0, len(s.Sources))
			for _, src := range s.Sources {
				lines = append(lines, "- "+src)
			}
			parts = append(parts, "**Sources:**\n"+strings.Join(lines, "\n"))
		}
	}
	parts = append(parts, "## Limitations and Further Research\n"+orNA(r.Limitations))
	return strings.Join(parts, "\n\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
