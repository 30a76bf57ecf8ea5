package models

import (
	"context"
	"errors"
	"testing"

	genai "github.com/google/generative-ai-go/genai"
)

func TestNewDummyLLMDefaultPrefix(t *testing.T) {
	llm := NewDummyLLM("")
	resp, err := llm.Generate(context.Background(), "line1\nline2")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := resp.(string); got != "Dummy response: line2" {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestDummyLLMHandlesEmptyPrompt(t *testing.T) {
	llm := NewDummyLLM("Prefix")
	resp, err := llm.Generate(context.Background(), "\n\n\n")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := resp.(string); got != "Prefix <empty prompt>" {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestNewLLMProviderErrorsOnUnknownProvider(t *testing.T) {
	if _, err := NewLLMProvider(context.Background(), "unknown", "model", ""); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewLLMProviderBuildsOfflineProviders(t *testing.T) {
	agent, err := NewLLMProvider(context.Background(), "Dummy", "", "")
	if err != nil {
		t.Fatalf("dummy provider: %v", err)
	}
	if _, ok := agent.(*DummyLLM); !ok {
		t.Fatalf("expected *DummyLLM, got %T", agent)
	}

	agent, err = NewLLMProvider(context.Background(), "openai", "gpt-4o-mini", "", WithAPIKey("test"))
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if o, ok := agent.(*OpenAILLM); !ok || o.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected openai agent %#v", agent)
	}

	agent, err = NewLLMProvider(context.Background(), "claude", "claude-3-5-haiku-latest", "", WithAPIKey("test"), WithMaxTokens(256))
	if err != nil {
		t.Fatalf("anthropic provider: %v", err)
	}
	if a, ok := agent.(*AnthropicLLM); !ok || a.MaxTokens != 256 {
		t.Fatalf("unexpected anthropic agent %#v", agent)
	}

	if _, err := NewLLMProvider(context.Background(), "ollama", "llama3", "", WithHost("http://127.0.0.1:1")); err != nil {
		t.Fatalf("ollama provider: %v", err)
	}
}

func TestText(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"plain", "plain"},
		{genai.Text("gemini"), "gemini"},
		{OllamaResult{Text: "ollama", Done: true}, "ollama"},
		{nil, ""},
		{42, "42"},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Fatalf("Text(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompleteRejectsBlankOutput(t *testing.T) {
	llm := NewScriptedLLM("   \n")
	if _, err := Complete(context.Background(), llm, "anything"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestScriptedLLMRules(t *testing.T) {
	boom := errors.New("boom")
	llm := NewScriptedLLM("fallback").
		On("classify", "factual").
		Fail("explode", boom)

	ctx := context.Background()
	if got, _ := Complete(ctx, llm, "please classify this"); got != "factual" {
		t.Fatalf("expected rule reply, got %q", got)
	}
	if got, _ := Complete(ctx, llm, "something else"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if _, err := llm.Generate(ctx, "explode now"); !errors.Is(err, boom) {
		t.Fatalf("expected scripted failure, got %v", err)
	}
	if llm.Calls() != 3 || len(llm.Prompts()) != 3 {
		t.Fatalf("expected 3 recorded prompts, got %d", llm.Calls())
	}
}

func TestScriptedLLMHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScriptedLLM("x").Generate(ctx, "p"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
