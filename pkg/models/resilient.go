package models

import (
	"context"
	"errors"
	"time"

	"github.com/zoobzio/pipz"
)

// Resilience configures ResilientLLM. Zero values disable the matching stage.
type Resilience struct {
	Timeout   time.Duration
	Attempts  int
	BaseDelay time.Duration
}

type generation struct {
	prompt string
	text   string
	empty  bool
}

// ResilientLLM runs every call through a pipz pipeline: a per-attempt
// timeout wrapped in retries with exponential backoff. A blank completion is
// an answer, not a fault, so it ends the pipeline without a retry and
// surfaces as ErrEmptyCompletion.
type ResilientLLM struct {
	agent    Agent
	pipeline pipz.Chainable[*generation]
}

func NewResilientLLM(agent Agent, r Resilience) *ResilientLLM {
	var pipeline pipz.Chainable[*generation] = pipz.Apply("generate", func(ctx context.Context, g *generation) (*generation, error) {
		text, err := Complete(ctx, agent, g.prompt)
		if errors.Is(err, ErrEmptyCompletion) {
			g.empty = true
			return g, nil
		}
		if err != nil {
			return g, err
		}
		g.text = text
		return g, nil
	})
	if r.Timeout > 0 {
		pipeline = pipz.NewTimeout("timeout", pipeline, r.Timeout)
	}
	if r.Attempts > 1 {
		if r.BaseDelay > 0 {
			pipeline = pipz.NewBackoff("backoff", pipeline, r.Attempts, r.BaseDelay)
		} else {
			pipeline = pipz.NewRetry("retry", pipeline, r.Attempts)
		}
	}
	return &ResilientLLM{agent: agent, pipeline: pipeline}
}

func (r *ResilientLLM) Generate(ctx context.Context, prompt string) (any, error) {
	g, err := r.pipeline.Process(ctx, &generation{prompt: prompt})
	if err != nil {
		return nil, err
	}
	if g.empty {
		return nil, ErrEmptyCompletion
	}
	return g.text, nil
}

var _ Agent = (*ResilientLLM)(nil)
