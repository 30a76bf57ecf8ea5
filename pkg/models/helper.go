package models

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type providerOptions struct {
	apiKey    string
	host      string
	maxTokens int
}

// Option tunes a provider built by NewLLMProvider.
type Option func(*providerOptions)

// WithAPIKey overrides the key otherwise read from the provider's env var.
func WithAPIKey(key string) Option {
	return func(o *providerOptions) { o.apiKey = key }
}

// WithHost points the Ollama client at a server other than OLLAMA_HOST.
func WithHost(host string) Option {
	return func(o *providerOptions) { o.host = host }
}

func WithMaxTokens(n int) Option {
	return func(o *providerOptions) { o.maxTokens = n }
}

// NewLLMProvider returns a concrete Agent for provider.
func NewLLMProvider(ctx context.Context, provider, model, promptPrefix string, opts ...Option) (Agent, error) {
	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return NewOpenAILLM(model, promptPrefix, o.apiKey), nil
	case "gemini", "google":
		return NewGeminiLLM(ctx, model, promptPrefix, o.apiKey)
	case "ollama":
		return NewOllamaLLM(model, promptPrefix, o.host)
	case "anthropic", "claude":
		llm := NewAnthropicLLM(model, promptPrefix, o.apiKey)
		if o.maxTokens > 0 {
			llm.MaxTokens = o.maxTokens
		}
		return llm, nil
	case "dummy":
		return NewDummyLLM(promptPrefix), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// Layered puts agent behind the resilience pipeline and, when cacheSize is
// positive, a completion cache in front of it.
func Layered(agent Agent, namespace string, cacheSize int, cacheTTL time.Duration, cachePath string, r Resilience, opts ...CacheOption) Agent {
	var out Agent = NewResilientLLM(agent, r)
	if cacheSize > 0 {
		out = NewCachedLLM(out, namespace, cacheSize, cacheTTL, cachePath, opts...)
	}
	return out
}
