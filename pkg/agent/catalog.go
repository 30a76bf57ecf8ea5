package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StaticToolCatalog is an in-memory, registration-ordered set of tools.
type StaticToolCatalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]ToolSpec
	order []string
}

// NewStaticToolCatalog constructs a catalog seeded with the provided tools.
// Invalid or duplicate entries are skipped.
func NewStaticToolCatalog(tools []Tool) *StaticToolCatalog {
	catalog := &StaticToolCatalog{
		tools: make(map[string]Tool),
		specs: make(map[string]ToolSpec),
	}
	for _, tool := range tools {
		_ = catalog.Register(tool)
	}
	return catalog
}

// Register adds a tool under its lower-cased name. Duplicate names return an error.
func (c *StaticToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[key]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	c.tools[key] = tool
	c.specs[key] = spec
	c.order = append(c.order, key)
	return nil
}

func (c *StaticToolCatalog) Lookup(name string) (Tool, ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	tool, ok := c.tools[key]
	if !ok {
		return nil, ToolSpec{}, false
	}
	return tool, c.specs[key], true
}

// Specs returns a snapshot of the tool specifications in registration order.
func (c *StaticToolCatalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, c.specs[key])
	}
	return specs
}

func (c *StaticToolCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// SubAgentTool adapts a SubAgent to the Tool interface.
type SubAgentTool struct {
	subAgent SubAgent
}

func NewSubAgentTool(sa SubAgent) Tool {
	return &SubAgentTool{subAgent: sa}
}

func (t *SubAgentTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        t.subAgent.Name(),
		Description: t.subAgent.Description(),
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"instruction": map[string]any{
					"type":        "string",
					"description": "The instruction or query for the sub-agent.",
				},
			},
			"required": []string{"instruction"},
		},
	}
}

func (t *SubAgentTool) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	instruction, ok := StringArg(req.Arguments, "instruction")
	if !ok || strings.TrimSpace(instruction) == "" {
		return ToolResponse{}, fmt.Errorf("missing or invalid 'instruction' argument")
	}
	result, err := t.subAgent.Run(ctx, instruction)
	if err != nil {
		return ToolResponse{}, err
	}
	return ToolResponse{Content: result, Metadata: map[string]string{"subagent": t.subAgent.Name()}}, nil
}
