// Package agent implements a tool-using agent: each step the model either
// picks a tool from the catalog or answers, and tool observations are fed
// back until it answers or the step budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Protocol-Lattice/perplexia/pkg/models"
	"github.com/Protocol-Lattice/perplexia/pkg/router"
	"github.com/Protocol-Lattice/perplexia/pkg/session"
)

const (
	defaultSystemPrompt = "You are a helpful assistant with access to tools. Use a tool when it gives a more accurate answer than you could alone, then answer the user."
	defaultMaxSteps     = 6
)

var (
	// ErrMaxSteps is returned when the model keeps calling tools past the budget.
	ErrMaxSteps = errors.New("agent exceeded max steps")
	// ErrEmptyInput is returned for a blank user message.
	ErrEmptyInput = errors.New("user input is empty")
)

// Agent runs the tool loop. It is safe for concurrent use across sessions.
type Agent struct {
	model        models.Agent
	systemPrompt string
	maxSteps     int
	catalog      *StaticToolCatalog
	subagents    map[string]SubAgent
	sessions     *session.Store
	logger       *zap.Logger
}

// Options configure a new Agent.
type Options struct {
	Model        models.Agent
	SystemPrompt string
	MaxSteps     int
	Tools        []Tool
	SubAgents    []SubAgent
	// Catalog, when set, receives Tools and SubAgents; otherwise a fresh one is used.
	Catalog  *StaticToolCatalog
	Sessions *session.Store
	Logger   *zap.Logger
}

func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent requires a language model")
	}

	systemPrompt := opts.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = NewStaticToolCatalog(nil)
	}
	for _, tool := range opts.Tools {
		if tool == nil {
			continue
		}
		if err := catalog.Register(tool); err != nil {
			return nil, err
		}
	}

	subagents := make(map[string]SubAgent)
	for _, sa := range opts.SubAgents {
		if sa == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(sa.Name()))
		if key == "" {
			continue
		}
		subagents[key] = sa
		if err := catalog.Register(NewSubAgentTool(sa)); err != nil {
			return nil, err
		}
	}

	sessions := opts.Sessions
	if sessions == nil {
		var err error
		if sessions, err = session.New(session.DefaultSize, 0); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Agent{
		model:        opts.Model,
		systemPrompt: systemPrompt,
		maxSteps:     maxSteps,
		catalog:      catalog,
		subagents:    subagents,
		sessions:     sessions,
		logger:       logger,
	}, nil
}

func (a *Agent) ToolSpecs() []ToolSpec { return a.catalog.Specs() }

// History returns the stored turns of a session.
func (a *Agent) History(sessionID string) []router.Message {
	return a.sessions.History(sessionID)
}

// decision is the JSON shape the model replies with on every step.
type decision struct {
	UseTool   bool           `json:"use_tool"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Answer    string         `json:"answer"`
}

type observation struct {
	tool   string
	args   map[string]any
	result string
}

// Respond answers input within sessionID. Inputs of the form
// `tool:<name> <json>` or `subagent:<name> <task>` bypass the model.
func (a *Agent) Respond(ctx context.Context, sessionID, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}
	start := time.Now()

	if handled, output, err := a.handleCommand(ctx, sessionID, input); handled {
		if err != nil {
			return "", err
		}
		a.remember(sessionID, input, output)
		return output, nil
	}

	history := a.sessions.History(sessionID)
	var scratchpad []observation

	for step := 1; step <= a.maxSteps; step++ {
		reply, err := models.Complete(ctx, a.model, a.buildPrompt(history, input, scratchpad))
		if err != nil {
			return "", err
		}

		d, ok := parseDecision(reply)
		if !ok || !d.UseTool {
			answer := strings.TrimSpace(reply)
			if ok && strings.TrimSpace(d.Answer) != "" {
				answer = strings.TrimSpace(d.Answer)
			}
			a.remember(sessionID, input, answer)
			a.logger.Debug("agent answered",
				zap.String("session_id", sessionID),
				zap.Int("steps", step),
				zap.Duration("duration", time.Since(start)))
			return answer, nil
		}

		result := a.invoke(ctx, sessionID, d.ToolName, d.Arguments)
		a.logger.Debug("agent tool call",
			zap.String("session_id", sessionID),
			zap.String("tool", d.ToolName),
			zap.Int("step", step))
		scratchpad = append(scratchpad, observation{tool: d.ToolName, args: d.Arguments, result: result})
	}

	return "", fmt.Errorf("%w (%d)", ErrMaxSteps, a.maxSteps)
}

// invoke runs a tool and turns any failure into an observation.
func (a *Agent) invoke(ctx context.Context, sessionID, name string, args map[string]any) string {
	tool, _, ok := a.catalog.Lookup(name)
	if !ok {
		return fmt.Sprintf("tool error: unknown tool %q", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	resp, err := tool.Invoke(ctx, ToolRequest{SessionID: sessionID, Arguments: args})
	if err != nil {
		return "tool error: " + err.Error()
	}
	return strings.TrimSpace(resp.Content)
}

func (a *Agent) remember(sessionID, input, output string) {
	a.sessions.Append(sessionID,
		router.Message{Role: "user", Content: input},
		router.Message{Role: "assistant", Content: output})
}

func (a *Agent) buildPrompt(history []router.Message, input string, scratchpad []observation) string {
	var sb strings.Builder
	sb.WriteString(a.systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(a.renderTools())

	sb.WriteString("\nReply with JSON only, in one of these shapes:\n")
	sb.WriteString(`{"use_tool": true, "tool_name": "<name>", "arguments": {...}}` + "\n")
	sb.WriteString(`{"use_tool": false, "answer": "<final answer>"}` + "\n")

	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		sb.WriteString(router.FlattenHistory(history))
		sb.WriteString("\n")
	}

	sb.WriteString("\nUser question:\n")
	sb.WriteString(input)
	sb.WriteString("\n")

	if len(scratchpad) > 0 {
		sb.WriteString("\nTool observations so far:\n")
		for i, obs := range scratchpad {
			args, _ := json.Marshal(obs.args)
			fmt.Fprintf(&sb, "%d. %s %s => %s\n", i+1, obs.tool, args, obs.result)
		}
	}
	return sb.String()
}

// renderTools formats the catalog into a prompt-friendly block.
func (a *Agent) renderTools() string {
	specs := a.catalog.Specs()
	if len(specs) == 0 {
		return "No tools are available.\n"
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, spec := range specs {
		fmt.Fprintf(&sb, "- %s: %s\n", spec.Name, spec.Description)
		if len(spec.InputSchema) > 0 {
			if schemaJSON, err := json.Marshal(spec.InputSchema); err == nil {
				sb.WriteString("  Input schema: ")
				sb.Write(schemaJSON)
				sb.WriteString("\n")
			}
		}
		for _, ex := range spec.Examples {
			if exJSON, err := json.Marshal(ex); err == nil {
				sb.WriteString("  Example: ")
				sb.Write(exJSON)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func (a *Agent) handleCommand(ctx context.Context, sessionID, input string) (bool, string, error) {
	lower := strings.ToLower(input)

	switch {
	case strings.HasPrefix(lower, "tool:"):
		payload := strings.TrimSpace(input[len("tool:"):])
		if payload == "" {
			return true, "", errors.New("tool name is missing")
		}
		name, args := splitCommand(payload)
		tool, _, ok := a.catalog.Lookup(name)
		if !ok {
			return true, "", fmt.Errorf("unknown tool: %s", name)
		}
		resp, err := tool.Invoke(ctx, ToolRequest{SessionID: sessionID, Arguments: parseToolArguments(args)})
		if err != nil {
			return true, "", err
		}
		return true, resp.Content, nil
	case strings.HasPrefix(lower, "subagent:"):
		payload := strings.TrimSpace(input[len("subagent:"):])
		if payload == "" {
			return true, "", errors.New("subagent name is missing")
		}
		name, task := splitCommand(payload)
		sa, ok := a.subagents[strings.ToLower(name)]
		if !ok {
			return true, "", fmt.Errorf("unknown subagent: %s", name)
		}
		out, err := sa.Run(ctx, task)
		return true, out, err
	default:
		return false, "", nil
	}
}

// parseDecision extracts the outermost JSON object from reply, tolerating
// code fences and surrounding prose.
func parseDecision(reply string) (decision, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return decision{}, false
	}
	var d decision
	if err := json.Unmarshal([]byte(reply[start:end+1]), &d); err != nil {
		return decision{}, false
	}
	if d.UseTool && strings.TrimSpace(d.ToolName) == "" {
		return decision{}, false
	}
	return d, true
}

func parseToolArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	if strings.HasPrefix(raw, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return payload
		}
	}
	if strings.HasPrefix(raw, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return map[string]any{"items": arr}
		}
	}
	return map[string]any{"input": raw}
}

func splitCommand(payload string) (name string, args string) {
	parts := strings.Fields(payload)
	if len(parts) == 0 {
		return "", ""
	}
	name = parts[0]
	if len(payload) > len(name) {
		args = strings.TrimSpace(payload[len(name):])
	}
	return name, args
}

var _ Responder = (*Agent)(nil)
