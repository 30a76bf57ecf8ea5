package models

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type flakyAgent struct {
	failures int32
	calls    int32
}

func (f *flakyAgent) Generate(ctx context.Context, prompt string) (any, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, errors.New("temporary error")
	}
	return "ok: " + prompt, nil
}

type slowAgent struct{ delay time.Duration }

func (s slowAgent) Generate(ctx context.Context, prompt string) (any, error) {
	select {
	case <-time.After(s.delay):
		return "late", nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestResilientLLMRetries(t *testing.T) {
	flaky := &flakyAgent{failures: 2}
	llm := NewResilientLLM(flaky, Resilience{Attempts: 3})

	got, err := llm.Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got != "ok: q" {
		t.Fatalf("unexpected completion %v", got)
	}
	if calls := atomic.LoadInt32(&flaky.calls); calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestResilientLLMGivesUp(t *testing.T) {
	flaky := &flakyAgent{failures: 10}
	llm := NewResilientLLM(flaky, Resilience{Attempts: 2, BaseDelay: time.Millisecond})

	if _, err := llm.Generate(context.Background(), "q"); err == nil {
		t.Fatalf("expected failure to surface")
	}
	if calls := atomic.LoadInt32(&flaky.calls); calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestResilientLLMTimeout(t *testing.T) {
	llm := NewResilientLLM(slowAgent{delay: time.Second}, Resilience{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := llm.Generate(context.Background(), "q")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("timeout not enforced")
	}
}

func TestResilientLLMEmptyCompletionIsAnError(t *testing.T) {
	llm := NewResilientLLM(NewScriptedLLM(""), Resilience{})
	if _, err := llm.Generate(context.Background(), "q"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestResilientLLMDoesNotRetryEmptyCompletion(t *testing.T) {
	blank := &countingAgent{reply: "  "}
	llm := NewResilientLLM(blank, Resilience{Attempts: 3, BaseDelay: time.Millisecond})

	if _, err := llm.Generate(context.Background(), "q"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
	if calls := atomic.LoadInt32(&blank.calls); calls != 1 {
		t.Fatalf("expected a single attempt for a blank completion, got %d", calls)
	}
}

func TestLayeredCachesResilientCalls(t *testing.T) {
	flaky := &flakyAgent{failures: 1}
	llm := Layered(flaky, "ns", 8, time.Minute, "", Resilience{Attempts: 2})

	for i := 0; i < 3; i++ {
		if _, err := llm.Generate(context.Background(), "same"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if calls := atomic.LoadInt32(&flaky.calls); calls != 2 {
		t.Fatalf("expected one failed and one successful upstream call, got %d", calls)
	}
}
