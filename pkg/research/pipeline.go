package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Protocol-Lattice/perplexia/pkg/concurrent"
	"github.com/Protocol-Lattice/perplexia/pkg/models"
	"github.com/Protocol-Lattice/perplexia/pkg/subagents"
)

const finalizerPrompt = `You are a Report Finalizer responsible for completing a research report.

Based on the detailed analysis sections that have been researched, you need to generate:

1. Executive Summary (Brief overview of the entire report, ~150 words)
2. Key Findings (3-5 most important insights, in bullet points)
3. Limitations and Further Research (Identify gaps and suggest future areas of study)

Separate the three parts with a single blank line and do not use blank lines inside a part.
Do not introduce new information not found in the research.

Research Topic: {topic}

Detailed Analysis Sections:
{detailed_analysis}

Generate the Executive Summary, Key Findings, and Limitations sections to complete the report.`

// Specialist researches one section.
type Specialist interface {
	Research(ctx context.Context, title, description string) (subagents.Finding, error)
}

type Options struct {
	Model       models.Agent
	Specialist  Specialist
	MinSections int
	MaxSections int
	// Concurrency bounds how many sections are researched at once.
	Concurrency int
	Logger      *zap.Logger
}

type Pipeline struct {
	model       models.Agent
	specialist  Specialist
	minSections int
	maxSections int
	concurrency int
	logger      *zap.Logger
}

func New(opts Options) (*Pipeline, error) {
	if opts.Model == nil {
		return nil, errors.New("research pipeline requires a model")
	}
	if opts.Specialist == nil {
		return nil, errors.New("research pipeline requires a specialist")
	}
	minSections, maxSections := opts.MinSections, opts.MaxSections
	if minSections <= 0 {
		minSections = DefaultMinSections
	}
	if maxSections <= 0 {
		maxSections = DefaultMaxSections
	}
	if maxSections < minSections {
		return nil, fmt.Errorf("max sections %d is below min sections %d", maxSections, minSections)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		model:       opts.Model,
		specialist:  opts.Specialist,
		minSections: minSections,
		maxSections: maxSections,
		concurrency: opts.Concurrency,
		logger:      logger,
	}, nil
}

type step int

const (
	stepResearch step = iota
	stepFinalize
)

// Run plans, researches and finalizes a report on topic.
func (p *Pipeline) Run(ctx context.Context, topic string) (*Report, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("research topic is empty")
	}
	start := time.Now()

	plan, err := p.plan(ctx, topic)
	if err != nil {
		return nil, err
	}
	report := &Report{Topic: plan.Topic}
	for _, q := range plan.Questions {
		report.Sections = append(report.Sections, Section{Title: q.Title, Description: q.Description})
	}
	p.logger.Info("research plan ready", zap.String("topic", plan.Topic), zap.Int("sections", len(report.Sections)))

	for {
		switch evaluate(report.Sections) {
		case stepResearch:
			if err := p.research(ctx, report.Sections); err != nil {
				return nil, err
			}
		case stepFinalize:
			if err := p.finalize(ctx, report); err != nil {
				return nil, err
			}
			p.logger.Info("research report finalized",
				zap.String("topic", report.Topic),
				zap.Duration("duration", time.Since(start)))
			return report, nil
		}
	}
}

func (p *Pipeline) plan(ctx context.Context, topic string) (Plan, error) {
	raw, err := models.Complete(ctx, p.model, renderManagerPrompt(topic, p.minSections, p.maxSections))
	if err != nil {
		return Plan{}, fmt.Errorf("plan research: %w", err)
	}
	return ParsePlan(topic, raw, p.minSections, p.maxSections), nil
}

// evaluate decides the next step without calling the model.
func evaluate(sections []Section) step {
	for _, s := range sections {
		if !s.Completed {
			return stepResearch
		}
	}
	return stepFinalize
}

// research fills every pending section, running up to p.concurrency at once.
func (p *Pipeline) research(ctx context.Context, sections []Section) error {
	var pending []int
	for i, s := range sections {
		if !s.Completed {
			pending = append(pending, i)
		}
	}

	findings, err := concurrent.Map(ctx, pending, p.concurrency, func(ctx context.Context, idx int) (subagents.Finding, error) {
		s := sections[idx]
		p.logger.Debug("researching section", zap.String("title", s.Title))
		f, err := p.specialist.Research(ctx, s.Title, s.Description)
		if err != nil {
			return subagents.Finding{}, fmt.Errorf("research section %q: %w", s.Title, err)
		}
		return f, nil
	})
	if err != nil {
		return err
	}

	for i, idx := range pending {
		sections[idx].Content = findings[i].Content
		sections[idx].Sources = findings[i].Sources
		sections[idx].Completed = true
	}
	return nil
}

func (p *Pipeline) finalize(ctx context.Context, report *Report) error {
	var analysis []string
	for _, s := range report.Sections {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		analysis = append(analysis, fmt.Sprintf("## %s\n%s", s.Title, s.Content))
	}

	prompt := strings.NewReplacer(
		"{topic}", report.Topic,
		"{detailed_analysis}", strings.Join(analysis, "\n\n"),
	).Replace(finalizerPrompt)

	out, err := models.Complete(ctx, p.model, prompt)
	if err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(out), "\n\n")
	if len(parts) >= 3 {
		report.ExecutiveSummary = stripHeading(parts[0])
		report.KeyFindings = stripHeading(parts[1])
		report.Limitations = stripHeading(parts[2])
	} else {
		p.logger.Warn("finalizer output has fewer than three parts", zap.Int("parts", len(parts)))
	}
	return nil
}

// stripHeading drops a leading Markdown heading line.
func stripHeading(part string) string {
	part = strings.TrimSpace(part)
	if !strings.HasPrefix(part, "#") {
		return part
	}
	if i := strings.Index(part, "\n"); i >= 0 {
		return strings.TrimSpace(part[i+1:])
	}
	return ""
}
