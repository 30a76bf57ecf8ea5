// Package tools provides the agent's built-in tools.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/perplexia/pkg/agent"
	"github.com/Protocol-Lattice/perplexia/pkg/calculator"
	"github.com/Protocol-Lattice/perplexia/pkg/router"
)

// CalculatorTool evaluates arithmetic expressions with the safe evaluator.
type CalculatorTool struct{}

func (c *CalculatorTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "calculator",
		Description: "Evaluates arithmetic such as '105 * 0.18' or '(2 + 3) * 4'. Supports + - * / // % and parentheses.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "The arithmetic expression to evaluate.",
				},
			},
			"required": []any{"expression"},
		},
		Examples: []map[string]any{
			{"expression": "105 * 0.18"},
			{"expression": "(2 + 3) * 4"},
			{"expression": "7 // 2"},
		},
	}
}

func (c *CalculatorTool) Invoke(_ context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	raw, ok := agent.StringArg(req.Arguments, "expression")
	if !ok {
		return agent.ToolResponse{}, fmt.Errorf("missing 'expression' argument")
	}
	expr, err := router.ValidateExpression(raw)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	v, err := calculator.Evaluate(expr)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("evaluate %q: %w", strings.TrimSpace(expr), err)
	}
	return agent.ToolResponse{Content: v.String()}, nil
}

var _ agent.Tool = (*CalculatorTool)(nil)
