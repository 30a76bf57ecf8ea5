package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Protocol-Lattice/perplexia/pkg/agent"
)

const clientName = "perplexia"

// Toolset is a live MCP session whose tools are adapted to agent.Tool.
type Toolset struct {
	client *client.Client
	server string
	tools  []agent.Tool
}

// ConnectStdio spawns command and speaks MCP over its stdin/stdout.
func ConnectStdio(ctx context.Context, command string, env []string, args ...string) (*Toolset, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("mcp: stdio command is required")
	}
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: start %s: %w", command, err)
	}
	return newToolset(ctx, c)
}

// ConnectInProcess talks to s without a subprocess.
func ConnectInProcess(ctx context.Context, s *server.MCPServer) (*Toolset, error) {
	c, err := client.NewInProcessClient(s)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return newToolset(ctx, c)
}

func newToolset(ctx context.Context, c *client.Client) (*Toolset, error) {
	var initReq mcp.InitializeRequest
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "dev"}

	initRes, err := c.Initialize(ctx, initReq)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}

	ts := &Toolset{client: c, server: initRes.ServerInfo.Name}
	for _, def := range listed.Tools {
		ts.tools = append(ts.tools, &remoteTool{client: c, def: def})
	}
	return ts, nil
}

// Server is the name the remote server reported during initialization.
func (t *Toolset) Server() string { return t.server }

func (t *Toolset) Tools() []agent.Tool {
	return append([]agent.Tool(nil), t.tools...)
}

func (t *Toolset) Close() error { return t.client.Close() }

type remoteTool struct {
	client *client.Client
	def    mcp.Tool
}

func (r *remoteTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        r.def.Name,
		Description: r.def.Description,
		InputSchema: schemaMap(r.def),
	}
}

// schemaMap round-trips the tool through JSON so raw and structured schemas
// come out the same way.
func schemaMap(def mcp.Tool) map[string]any {
	data, err := json.Marshal(def)
	if err != nil {
		return nil
	}
	var decoded struct {
		InputSchema map[string]any `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	return decoded.InputSchema
}

func (r *remoteTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	var call mcp.CallToolRequest
	call.Params.Name = r.def.Name
	call.Params.Arguments = req.Arguments

	res, err := r.client.CallTool(ctx, call)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("mcp: call %s: %w", r.def.Name, err)
	}
	text := resultText(res)
	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return agent.ToolResponse{}, fmt.Errorf("mcp: tool %s failed: %s", r.def.Name, text)
	}
	return agent.ToolResponse{Content: text, Metadata: map[string]string{"mcp_tool": r.def.Name}}, nil
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			if s := strings.TrimSpace(tc.Text); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n")
}
