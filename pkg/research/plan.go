// Package research runs the deep research pipeline: a manager plans the
// sections, specialists research them in parallel, an evaluator waits for
// every section and a finalizer writes the summary parts of the report.
package research

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultMinSections = 3
	DefaultMaxSections = 5
)

const managerPrompt = `You are a Research Manager responsible for planning comprehensive research reports.

Your task is to:
1. Take a broad research topic
2. Break it down into {min}-{max} specific research questions/sections
3. Create a research plan with a clear structure

For each research question, provide:
- A clear title
- A description of what should be researched

DO NOT conduct the actual research. You are only planning the structure.

The report structure will follow:
- Executive Summary
- Key Findings
- Detailed Analysis (sections for each research question)
- Limitations and Further Research

Return only JSON of the form:
{"topic": "...", "questions": [{"title": "...", "description": "..."}]}

Research Topic: {topic}`

// Question is one planned section.
type Question struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Plan is the manager's output.
type Plan struct {
	Topic     string     `json:"topic"`
	Questions []Question `json:"questions"`
}

// fillerAngles pads plans that come back shorter than the minimum.
var fillerAngles = []string{
	"Background and context",
	"Current developments",
	"Challenges and open problems",
	"Key players and perspectives",
	"Future outlook",
}

func renderManagerPrompt(topic string, minSections, maxSections int) string {
	return strings.NewReplacer(
		"{min}", fmt.Sprint(minSections),
		"{max}", fmt.Sprint(maxSections),
		"{topic}", topic,
	).Replace(managerPrompt)
}

// ParsePlan reads the manager's reply. JSON is preferred; otherwise every
// non-empty line becomes a section. The result always has between
// minSections and maxSections questions.
func ParsePlan(topic, raw string, minSections, maxSections int) Plan {
	plan, ok := parsePlanJSON(raw)
	if !ok {
		plan = Plan{Questions: planFromLines(raw)}
	}
	if strings.TrimSpace(plan.Topic) == "" {
		plan.Topic = topic
	}

	questions := plan.Questions[:0]
	for _, q := range plan.Questions {
		q.Title = strings.TrimSpace(q.Title)
		q.Description = strings.TrimSpace(q.Description)
		if q.Title == "" {
			continue
		}
		if q.Description == "" {
			q.Description = q.Title
		}
		questions = append(questions, q)
	}

	if len(questions) > maxSections {
		questions = questions[:maxSections]
	}
	for i := 0; len(questions) < minSections && i < len(fillerAngles); i++ {
		title := fmt.Sprintf("%s: %s", fillerAngles[i], plan.Topic)
		if hasTitle(questions, title) {
			continue
		}
		questions = append(questions, Question{Title: title, Description: fmt.Sprintf("%s of %s.", fillerAngles[i], plan.Topic)})
	}
	plan.Questions = questions
	return plan
}

func parsePlanJSON(raw string) (Plan, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Plan{}, false
	}
	var plan Plan
	if err := json.Unmarshal([]byte(raw[start:end+1]), &plan); err != nil {
		return Plan{}, false
	}
	return plan, len(plan.Questions) > 0
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*#]+|\d+[.)])\s*`)

func planFromLines(raw string) []Question {
	var out []Question
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, Question{Title: line, Description: line})
	}
	return out
}

func hasTitle(qs []Question, title string) bool {
	for _, q := range qs {
		if strings.EqualFold(q.Title, title) {
			return true
		}
	}
	return false
}
