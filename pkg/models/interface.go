package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
)

// ErrEmptyCompletion is returned when a provider answers with nothing but
// whitespace. Callers never see an empty string in place of a failure.
var ErrEmptyCompletion = errors.New("empty completion")

// Agent is the generation service boundary: one prompt in, one completion out.
type Agent interface {
	Generate(context.Context, string) (any, error)
}

// OllamaResult is what OllamaLLM returns from Generate.
type OllamaResult struct {
	Text       string
	Done       bool
	DoneReason string
}

func (r OllamaResult) String() string { return r.Text }

// Text normalises the provider specific result types to plain text.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case genai.Text:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(v)
	}
}

// Complete runs one generation call and returns its text. A blank completion
// is reported as ErrEmptyCompletion.
func Complete(ctx context.Context, agent Agent, prompt string) (string, error) {
	res, err := agent.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := Text(res)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func withPrefix(prefix, prompt string) string {
	if strings.TrimSpace(prefix) == "" {
		return prompt
	}
	return prefix + "\n\n" + prompt
}
