package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Protocol-Lattice/perplexia/pkg/models"
	"github.com/Protocol-Lattice/perplexia/pkg/router"
	"github.com/Protocol-Lattice/perplexia/pkg/sandbox"
	"github.com/Protocol-Lattice/perplexia/pkg/search"
	"github.com/Protocol-Lattice/perplexia/pkg/session"
)

// newModel builds the configured provider behind retries, timeouts and the
// optional completion cache.
func newModel(ctx context.Context) (models.Agent, error) {
	base, err := models.NewLLMProvider(ctx, cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.PromptPrefix,
		models.WithAPIKey(cfg.LLM.APIKey),
		models.WithHost(cfg.LLM.Host),
		models.WithMaxTokens(cfg.LLM.MaxTokens),
	)
	if err != nil {
		return nil, err
	}
	return models.Layered(base, cfg.LLM.Provider+":"+cfg.LLM.Model,
		cfg.LLM.CacheSize, cfg.GetCacheTTL(), cfg.LLM.CachePath,
		models.Resilience{
			Timeout:   cfg.GetLLMTimeout(),
			Attempts:  cfg.LLM.Retries + 1,
			BaseDelay: cfg.GetRetryDelay(),
		},
		models.WithCacheLogger(logger.Named("llm-cache"))), nil
}

func newRunner() (*sandbox.Runner, error) {
	return sandbox.New(sandbox.Options{Timeout: cfg.GetSandboxTimeout(), Logger: logger.Named("sandbox")})
}

func newChat(model models.Agent, runner router.SnippetRunner) (*router.Chat, error) {
	variant, err := router.ParseVariant(cfg.Router.Variant)
	if err != nil {
		return nil, err
	}
	return router.New(router.Options{
		Model:   model,
		Variant: variant,
		Runner:  runner,
		Logger:  logger.Named("router"),
	})
}

// newSearcher returns nil when no Tavily key is configured; search-backed
// tools are then left out.
func newSearcher() search.Searcher {
	client, err := search.NewTavilyClient(cfg.Search.APIKey, cfg.Search.BaseURL, cfg.Search.MaxResults)
	if err != nil {
		if errors.Is(err, search.ErrMissingAPIKey) {
			logger.Warn("web search disabled: TAVILY_API_KEY is not set")
		} else {
			logger.Warn("web search disabled", zap.Error(err))
		}
		return nil
	}
	return client
}

func newSessions() (*session.Store, error) {
	return session.New(cfg.Session.Size, cfg.Session.MaxTurns)
}

// chatStack builds everything the router-backed commands share.
func chatStack(ctx context.Context) (*router.Chat, error) {
	model, err := newModel(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := newRunner()
	if err != nil {
		return nil, err
	}
	return newChat(model, runner)
}
