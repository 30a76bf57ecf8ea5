package agent

import "context"

// ToolSpec describes how the agent should present a tool to the model.
type ToolSpec struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema map[string]any   `json:"input_schema"`
	Examples    []map[string]any `json:"examples,omitempty"`
}

// ToolRequest captures an invocation request for a tool.
type ToolRequest struct {
	SessionID string
	Arguments map[string]any
}

// ToolResponse represents the structured response returned by a tool.
type ToolResponse struct {
	Content  string
	Metadata map[string]string
}

// Tool exposes structured metadata and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// SubAgent represents a specialist agent that can be delegated work.
type SubAgent interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

// Responder answers one message within a session. Both the tool agent and
// the chat router can be exposed this way.
type Responder interface {
	Respond(ctx context.Context, sessionID, input string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, sessionID, input string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, sessionID, input string) (string, error) {
	return f(ctx, sessionID, input)
}

// StringArg reads a string argument, accepting "input" as a fallback key so
// free-form `tool:<name> text` commands work for single-argument tools.
func StringArg(args map[string]any, key string) (string, bool) {
	for _, k := range []string{key, "input"} {
		if v, ok := args[k].(string); ok {
			return v, true
		}
	}
	return "", false
}
