package agent

import (
	"context"
	"fmt"
	"strings"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/cli"
	"github.com/universal-tool-calling-protocol/go-utcp/src/repository"
	"github.com/universal-tool-calling-protocol/go-utcp/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp/src/transports"

	"github.com/Protocol-Lattice/perplexia/pkg/router"
	"github.com/Protocol-Lattice/perplexia/pkg/session"
)

// inProcessTransport routes CLI-provider calls to registered in-process
// handlers and falls back to the client's existing CLI transport.
type inProcessTransport struct {
	inner repository.ClientTransport
	tools map[string][]tools.Tool
}

func (t *inProcessTransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error) {
	p, ok := prov.(*cli.CliProvider)
	if ok {
		if list, found := t.tools[p.Name]; found {
			return list, nil
		}
	}
	if t.inner != nil {
		return t.inner.RegisterToolProvider(ctx, prov)
	}
	if !ok {
		return nil, fmt.Errorf("unsupported provider type %T", prov)
	}
	return nil, fmt.Errorf("no in-process tools for provider %s", p.Name)
}

func (t *inProcessTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	if p, ok := prov.(*cli.CliProvider); ok {
		if _, found := t.tools[p.Name]; found {
			delete(t.tools, p.Name)
			return nil
		}
	}
	if t.inner != nil {
		return t.inner.DeregisterToolProvider(ctx, prov)
	}
	return nil
}

func (t *inProcessTransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider, _ *string) (any, error) {
	if p, ok := prov.(*cli.CliProvider); ok {
		for _, tool := range t.tools[p.Name] {
			if tool.Name != toolName && !strings.HasSuffix(tool.Name, "."+toolName) {
				continue
			}
			if tool.Handler == nil {
				return nil, fmt.Errorf("tool %s has no handler", toolName)
			}
			return tool.Handler(ctx, args)
		}
	}
	if t.inner != nil {
		return t.inner.CallTool(ctx, toolName, args, prov, nil)
	}
	return nil, fmt.Errorf("tool %s not found", toolName)
}

func (t *inProcessTransport) CallToolStream(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (transports.StreamResult, error) {
	if p, ok := prov.(*cli.CliProvider); ok {
		if _, found := t.tools[p.Name]; found {
			return nil, fmt.Errorf("streaming not supported for tool %s", toolName)
		}
	}
	if t.inner != nil {
		return t.inner.CallToolStream(ctx, toolName, args, prov)
	}
	return nil, fmt.Errorf("unsupported provider type %T", prov)
}

func providerName(toolName string) string {
	name := strings.TrimSpace(toolName)
	if i := strings.Index(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// AsUTCPTool exposes r as a UTCP tool taking an instruction and an optional
// session_id. The result is a map with "response" and "session_id".
func AsUTCPTool(r Responder, name, description string) tools.Tool {
	defaultSession := providerName(name) + ".session"
	return tools.Tool{
		Name:        name,
		Description: description,
		Provider: &base.BaseProvider{
			Name:         providerName(name),
			ProviderType: base.ProviderCLI,
		},
		Inputs: tools.ToolInputOutputSchema{
			Type: "object",
			Properties: map[string]any{
				"instruction": map[string]any{
					"type":        "string",
					"description": "The message to answer.",
				},
				"session_id": map[string]any{
					"type":        "string",
					"description": "Optional session id; defaults to the provider-derived session.",
				},
			},
			Required: []string{"instruction"},
		},
		Outputs: tools.ToolInputOutputSchema{
			Type: "object",
			Properties: map[string]any{
				"response":   map[string]any{"type": "string"},
				"session_id": map[string]any{"type": "string"},
			},
		},
		Handler: tools.ToolHandler(func(ctx context.Context, inputs map[string]interface{}) (any, error) {
			instruction, ok := inputs["instruction"].(string)
			if !ok || strings.TrimSpace(instruction) == "" {
				return nil, fmt.Errorf("missing or invalid 'instruction'")
			}
			sessionID, _ := inputs["session_id"].(string)
			if strings.TrimSpace(sessionID) == "" {
				sessionID = defaultSession
			}
			if ctx == nil {
				ctx = context.Background()
			}
			out, err := r.Respond(ctx, sessionID, instruction)
			if err != nil {
				return nil, err
			}
			return map[string]any{"response": out, "session_id": sessionID}, nil
		}),
	}
}

// RegisterUTCPProvider registers r as a UTCP tool on client through an
// in-process shim installed over the client's CLI transport.
func RegisterUTCPProvider(ctx context.Context, client utcp.UtcpClientInterface, r Responder, name, description string) error {
	if client == nil {
		return fmt.Errorf("utcp client is nil")
	}
	if r == nil {
		return fmt.Errorf("responder is nil")
	}

	transportsMap := client.GetTransports()
	if transportsMap == nil {
		return fmt.Errorf("utcp client transports map is nil")
	}
	existing := transportsMap[string(base.ProviderCLI)]
	shim, ok := existing.(*inProcessTransport)
	if !ok {
		shim = &inProcessTransport{inner: existing, tools: make(map[string][]tools.Tool)}
		transportsMap[string(base.ProviderCLI)] = shim
	}

	prov := &cli.CliProvider{
		BaseProvider: base.BaseProvider{
			Name:         providerName(name),
			ProviderType: base.ProviderCLI,
		},
	}
	shim.tools[prov.Name] = append(shim.tools[prov.Name], AsUTCPTool(r, name, description))

	_, err := client.RegisterToolProvider(ctx, prov)
	return err
}

// NewChatResponder adapts the chat router to Responder, keeping each
// session's history in sessions.
func NewChatResponder(chat *router.Chat, sessions *session.Store) Responder {
	return ResponderFunc(func(ctx context.Context, sessionID, input string) (string, error) {
		answer, err := chat.Process(ctx, input, sessions.History(sessionID))
		if err != nil {
			return "", err
		}
		sessions.Append(sessionID,
			router.Message{Role: "user", Content: input},
			router.Message{Role: "assistant", Content: answer})
		return answer, nil
	})
}

// UTCPTool lets the agent call a tool registered on a UTCP client.
type UTCPTool struct {
	client utcp.UtcpClientInterface
	spec   ToolSpec
	remote string
}

// NewUTCPTool wraps the UTCP tool remote. spec.Name is what the model sees.
func NewUTCPTool(client utcp.UtcpClientInterface, remote string, spec ToolSpec) *UTCPTool {
	if spec.Name == "" {
		spec.Name = strings.ReplaceAll(remote, ".", "_")
	}
	return &UTCPTool{client: client, spec: spec, remote: remote}
}

func (t *UTCPTool) Spec() ToolSpec { return t.spec }

func (t *UTCPTool) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	args := req.Arguments
	if v, ok := StringArg(args, "instruction"); ok {
		args = map[string]any{"instruction": v}
		if req.SessionID != "" {
			args["session_id"] = req.SessionID
		}
	}
	out, err := t.client.CallTool(ctx, t.remote, args)
	if err != nil {
		return ToolResponse{}, err
	}
	if m, ok := out.(map[string]any); ok {
		if resp, ok := m["response"].(string); ok {
			return ToolResponse{Content: resp}, nil
		}
	}
	return ToolResponse{Content: fmt.Sprint(out)}, nil
}
