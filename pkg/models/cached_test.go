package models

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingAgent struct {
	calls int32
	reply string
	err   error
}

func (m *countingAgent) Generate(ctx context.Context, prompt string) (any, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func TestCachedLLM_Generate(t *testing.T) {
	mock := &countingAgent{reply: "mock response"}
	cached := NewCachedLLM(mock, "test", 10, time.Minute, "")
	ctx := context.Background()

	if _, err := cached.Generate(ctx, "hello"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := cached.Generate(ctx, "hello"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if count := atomic.LoadInt32(&mock.calls); count != 1 {
		t.Errorf("expected 1 call (cached), got %d", count)
	}

	if _, err := cached.Generate(ctx, "world"); err != nil {
		t.Fatalf("third call failed: %v", err)
	}
	if count := atomic.LoadInt32(&mock.calls); count != 2 {
		t.Errorf("expected 2 calls, got %d", count)
	}
}

func TestCachedLLM_DoesNotCacheFailures(t *testing.T) {
	mock := &countingAgent{err: errors.New("upstream down")}
	cached := NewCachedLLM(mock, "test", 10, time.Minute, "")

	for i := 0; i < 2; i++ {
		if _, err := cached.Generate(context.Background(), "q"); err == nil {
			t.Fatalf("expected error on call %d", i)
		}
	}
	if count := atomic.LoadInt32(&mock.calls); count != 2 {
		t.Fatalf("expected failures to bypass the cache, got %d calls", count)
	}
	if cached.Cache.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
}

func TestCachedLLM_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "llm.json")
	first := &countingAgent{reply: "persisted"}
	if _, err := NewCachedLLM(first, "ns", 10, time.Hour, path).Generate(context.Background(), "q"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	second := &countingAgent{reply: "fresh"}
	reloaded := NewCachedLLM(second, "ns", 10, time.Hour, path)
	got, err := reloaded.Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("generate after reload: %v", err)
	}
	if got != "persisted" {
		t.Fatalf("expected reloaded value, got %v", got)
	}
	if atomic.LoadInt32(&second.calls) != 0 {
		t.Fatalf("expected reloaded cache to serve the prompt")
	}

	other := NewCachedLLM(second, "other-model", 10, time.Hour, path)
	if got, _ := other.Generate(context.Background(), "q"); got != "fresh" {
		t.Fatalf("expected namespaces to be isolated, got %v", got)
	}
}

func TestCachedLLM_LogsSaveFailures(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	core, logs := observer.New(zapcore.WarnLevel)
	cached := NewCachedLLM(&countingAgent{reply: "answer"}, "ns", 10, time.Hour,
		filepath.Join(blocker, "llm.json"), WithCacheLogger(zap.New(core)))

	got, err := cached.Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("a failed save must not fail the call: %v", err)
	}
	if got != "answer" {
		t.Fatalf("unexpected completion %v", got)
	}
	entries := logs.FilterMessage("save completion cache").All()
	if len(entries) != 1 {
		t.Fatalf("expected one save warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["error"] == nil {
		t.Fatalf("expected the save error in the log fields")
	}
}

func TestCachedLLM_LogsCorruptCacheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}
	core, logs := observer.New(zapcore.WarnLevel)
	cached := NewCachedLLM(&countingAgent{reply: "fresh"}, "ns", 10, time.Hour, path, WithCacheLogger(zap.New(core)))

	if logs.FilterMessage("parse completion cache").Len() != 1 {
		t.Fatalf("expected a parse warning")
	}
	if got, err := cached.Generate(context.Background(), "q"); err != nil || got != "fresh" {
		t.Fatalf("expected a fresh completion, got %v, %v", got, err)
	}
}

func TestCachedLLM_MissingFileIsSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewCachedLLM(&countingAgent{reply: "x"}, "ns", 10, time.Hour,
		filepath.Join(t.TempDir(), "absent.json"), WithCacheLogger(zap.New(core)))
	if logs.Len() != 0 {
		t.Fatalf("expected no logs for a missing cache file, got %d", logs.Len())
	}
}
