package models

import (
	"context"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLM talks to the Messages API.
type AnthropicLLM struct {
	Client       *anthropic.Client
	Model        string
	MaxTokens    int
	PromptPrefix string
}

// NewAnthropicLLM falls back to ANTHROPIC_API_KEY when apiKey is empty.
func NewAnthropicLLM(model, promptPrefix, apiKey string) *AnthropicLLM {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	cl := anthropic.NewClient(anthropicopt.WithAPIKey(apiKey))
	return &AnthropicLLM{
		Client:       &cl,
		Model:        model,
		MaxTokens:    1024,
		PromptPrefix: promptPrefix,
	}
}

// Generate concatenates every text block of the reply.
func (a *AnthropicLLM) Generate(ctx context.Context, prompt string) (any, error) {
	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(withPrefix(a.PromptPrefix, prompt))),
		},
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}

var _ Agent = (*AnthropicLLM)(nil)
