package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

type OllamaLLM struct {
	Client       *ollama.Client
	Model        string
	PromptPrefix string
}

// NewOllamaLLM connects to host, or OLLAMA_HOST, or the local default.
func NewOllamaLLM(model, promptPrefix, host string) (*OllamaLLM, error) {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	c := ollama.NewClient(u, &http.Client{Timeout: 60 * time.Second})
	return &OllamaLLM{Client: c, Model: model, PromptPrefix: promptPrefix}, nil
}

// Generate collects the streamed response into an OllamaResult.
func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (any, error) {
	var (
		text strings.Builder
		last ollama.GenerateResponse
	)
	req := &ollama.GenerateRequest{
		Model:  o.Model,
		Prompt: withPrefix(o.PromptPrefix, prompt),
	}
	if err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		text.WriteString(gr.Response)
		last = gr
		return nil
	}); err != nil {
		return nil, err
	}
	return OllamaResult{Text: text.String(), Done: last.Done, DoneReason: last.DoneReason}, nil
}

var _ Agent = (*OllamaLLM)(nil)
