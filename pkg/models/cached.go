package models

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Protocol-Lattice/perplexia/pkg/cache"
)

// CachedLLM memoises completions by prompt. With a FilePath the cache
// survives restarts as a JSON dump.
type CachedLLM struct {
	Agent     Agent
	Cache     *cache.LRU[string]
	FilePath  string
	Logger    *zap.Logger
	namespace string

	saveMu sync.Mutex
}

// CacheOption configures a CachedLLM.
type CacheOption func(*CachedLLM)

// WithCacheLogger reports cache file failures, which never fail a call.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *CachedLLM) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// NewCachedLLM wraps agent. namespace keeps keys from different models apart
// when they share one cache file.
func NewCachedLLM(agent Agent, namespace string, size int, ttl time.Duration, filePath string, opts ...CacheOption) *CachedLLM {
	c := &CachedLLM{
		Agent:     agent,
		Cache:     cache.New[string](size, ttl),
		FilePath:  filePath,
		Logger:    zap.NewNop(),
		namespace: namespace,
	}
	for _, opt := range opts {
		opt(c)
	}
	if filePath != "" {
		c.load()
	}
	return c
}

func (c *CachedLLM) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *CachedLLM) load() {
	data, err := os.ReadFile(c.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		c.logger().Warn("read completion cache", zap.String("path", c.FilePath), zap.Error(err))
		return
	}
	var dump map[string]cache.Entry[string]
	if err := json.Unmarshal(data, &dump); err != nil {
		c.logger().Warn("parse completion cache", zap.String("path", c.FilePath), zap.Error(err))
		return
	}
	c.Cache.Restore(dump)
}

func (c *CachedLLM) save() error {
	if c.FilePath == "" {
		return nil
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	data, err := json.Marshal(c.Cache.Dump())
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := c.FilePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.FilePath)
}

// Generate serves from the cache when possible. Errors and blank completions
// are never cached.
func (c *CachedLLM) Generate(ctx context.Context, prompt string) (any, error) {
	key := cache.HashKey(c.namespace, prompt)
	if val, ok := c.Cache.Get(key); ok {
		return val, nil
	}

	text, err := Complete(ctx, c.Agent, prompt)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(key, text)
	if err := c.save(); err != nil {
		c.logger().Warn("save completion cache", zap.String("path", c.FilePath), zap.Error(err))
	}
	return text, nil
}

var _ Agent = (*CachedLLM)(nil)
