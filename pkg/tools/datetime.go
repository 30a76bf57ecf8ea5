package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/perplexia/pkg/agent"
	"github.com/Protocol-Lattice/perplexia/pkg/router"
)

// DatetimeTool runs a Go snippet in the sandbox to answer date and time questions.
type DatetimeTool struct {
	Runner router.SnippetRunner
}

func NewDatetimeTool(runner router.SnippetRunner) *DatetimeTool {
	return &DatetimeTool{Runner: runner}
}

func (d *DatetimeTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name: "execute_datetime_code",
		Description: "Runs a Go snippet that prints a date or time result. Only the fmt, math, strings and time " +
			"packages are available and the snippet must print its answer with fmt.Println.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Go statements to execute, e.g. fmt.Println(time.Now().Weekday())",
				},
			},
			"required": []any{"code"},
		},
		Examples: []map[string]any{{"code": `fmt.Println(time.Now().Format("2006-01-02"))`}},
	}
}

func (d *DatetimeTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	if d.Runner == nil {
		return agent.ToolResponse{}, fmt.Errorf("datetime tool has no sandbox runner")
	}
	raw, ok := agent.StringArg(req.Arguments, "code")
	if !ok {
		return agent.ToolResponse{}, fmt.Errorf("missing 'code' argument")
	}
	code, err := router.ValidateSnippet(raw)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	out, err := d.Runner.Run(ctx, code)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return agent.ToolResponse{Content: strings.TrimSpace(out)}, nil
}

var _ agent.Tool = (*DatetimeTool)(nil)
