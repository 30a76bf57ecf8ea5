package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"

	"github.com/Protocol-Lattice/perplexia/pkg/agent"
	"github.com/Protocol-Lattice/perplexia/pkg/mcp"
	"github.com/Protocol-Lattice/perplexia/pkg/subagents"
	"github.com/Protocol-Lattice/perplexia/pkg/tools"
)

const chatProvider = "perplexia.chat"

var agentSession string

var agentCmd = &cobra.Command{
	Use:   "agent [message]",
	Short: "Run the tool-using agent",
	Long: `Runs the agent loop with the calculator, datetime, weather and web search
tools, the researcher sub-agent, the chat router exposed over UTCP and, when
mcp.command is configured, the tools of that MCP server.

Prefix a message with "tool:<name> <json>" or "subagent:<name> <task>" to call
a tool or sub-agent directly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := buildAgent(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		id := agentSession
		if id == "" {
			id = uuid.NewString()
		}
		out, err := a.Respond(ctx, id, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func buildAgent(ctx context.Context) (*agent.Agent, func(), error) {
	cleanup := func() {}

	model, err := newModel(ctx)
	if err != nil {
		return nil, cleanup, err
	}
	runner, err := newRunner()
	if err != nil {
		return nil, cleanup, err
	}
	searcher := newSearcher()
	sessions, err := newSessions()
	if err != nil {
		return nil, cleanup, err
	}

	toolset := tools.Builtin(runner, searcher, cfg.Search.MaxResults)

	chat, err := newChat(model, runner)
	if err != nil {
		return nil, cleanup, err
	}
	client, err := utcp.NewUTCPClient(ctx, nil, nil, nil)
	if err != nil {
		return nil, cleanup, fmt.Errorf("create utcp client: %w", err)
	}
	if err := agent.RegisterUTCPProvider(ctx, client, agent.NewChatResponder(chat, sessions), chatProvider,
		"Answers a question with the classify-then-route chat assistant."); err != nil {
		return nil, cleanup, fmt.Errorf("register chat provider: %w", err)
	}
	toolset = append(toolset, agent.NewUTCPTool(client, chatProvider, agent.ToolSpec{
		Name:        "chat_assistant",
		Description: "Ask the routed chat assistant a question. It answers facts, comparisons, calculations and date questions.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"instruction": map[string]any{"type": "string", "description": "The question to ask."},
			},
			"required": []string{"instruction"},
		},
	}))

	if command := strings.TrimSpace(cfg.MCP.Command); command != "" {
		remote, err := mcp.ConnectStdio(ctx, command, cfg.MCP.Env, cfg.MCP.Args...)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := remote.Close(); err != nil {
				logger.Warn("mcp close", zap.Error(err))
			}
		}
		logger.Info("connected to MCP server",
			zap.String("server", remote.Server()),
			zap.Int("tools", len(remote.Tools())))
		toolset = append(toolset, remote.Tools()...)
	}

	a, err := agent.New(agent.Options{
		Model:     model,
		MaxSteps:  cfg.Agent.MaxSteps,
		Tools:     toolset,
		SubAgents: []agent.SubAgent{subagents.NewResearcher(model, searcher, cfg.Search.MaxResults)},
		Sessions:  sessions,
		Logger:    logger.Named("agent"),
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return a, cleanup, nil
}

func init() {
	agentCmd.Flags().StringVar(&agentSession, "session", "", "Session id to use (defaults to a new uuid)")
}
