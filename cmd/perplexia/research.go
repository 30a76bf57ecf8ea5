package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Protocol-Lattice/perplexia/pkg/research"
	"github.com/Protocol-Lattice/perplexia/pkg/subagents"
)

var (
	researchOutput string
	researchPlain  bool
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Write a multi-section research report on a topic",
	Long: `Plans the report sections, researches them in parallel using web search,
then writes the executive summary, key findings and limitations. The report is
saved as Markdown and rendered to the terminal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		model, err := newModel(ctx)
		if err != nil {
			return err
		}
		specialist := subagents.NewResearcher(model, newSearcher(), cfg.Search.MaxResults)

		pipeline, err := research.New(research.Options{
			Model:       model,
			Specialist:  specialist,
			MinSections: cfg.Research.MinSections,
			MaxSections: cfg.Research.MaxSections,
			Concurrency: cfg.Research.Concurrency,
			Logger:      logger.Named("research"),
		})
		if err != nil {
			return err
		}

		report, err := pipeline.Run(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		markdown := research.FormatReport(report)

		output := researchOutput
		if output == "" {
			output = cfg.Research.OutputPath
		}
		if output != "" {
			if err := os.WriteFile(output, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			logger.Info("report saved", zap.String("path", output))
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(markdown, researchPlain))
		return nil
	},
}

// renderMarkdown falls back to the raw text when the terminal renderer fails.
func renderMarkdown(markdown string, plain bool) string {
	if plain {
		return markdown
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logger.Debug("markdown renderer unavailable", zap.Error(err))
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		logger.Debug("markdown render failed", zap.Error(err))
		return markdown
	}
	return out
}

func init() {
	researchCmd.Flags().StringVarP(&researchOutput, "output", "o", "", "Report path (defaults to research.output_path)")
	researchCmd.Flags().BoolVar(&researchPlain, "plain", false, "Print raw Markdown instead of rendering it")
}
