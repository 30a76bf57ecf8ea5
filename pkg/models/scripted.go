package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Rule answers any prompt containing Match. Err, when set, is returned
// instead of Reply.
type Rule struct {
	Match string
	Reply string
	Err   error
}

// ScriptedLLM is a deterministic Agent driven by substring rules. The first
// matching rule wins; Fallback answers everything else. It records every
// prompt it receives.
type ScriptedLLM struct {
	Rules    []Rule
	Fallback string

	mu      sync.Mutex
	prompts []string
}

func NewScriptedLLM(fallback string, rules ...Rule) *ScriptedLLM {
	return &ScriptedLLM{Rules: rules, Fallback: fallback}
}

// On appends a rule and returns the receiver for chaining.
func (s *ScriptedLLM) On(match, reply string) *ScriptedLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rules = append(s.Rules, Rule{Match: match, Reply: reply})
	return s
}

// Fail makes prompts containing match return err.
func (s *ScriptedLLM) Fail(match string, err error) *ScriptedLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rules = append(s.Rules, Rule{Match: match, Err: err})
	return s
}

func (s *ScriptedLLM) Generate(ctx context.Context, prompt string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	rules := append([]Rule(nil), s.Rules...)
	s.mu.Unlock()

	for _, r := range rules {
		if strings.Contains(prompt, r.Match) {
			if r.Err != nil {
				return nil, fmt.Errorf("scripted: %w", r.Err)
			}
			return r.Reply, nil
		}
	}
	return s.Fallback, nil
}

// Prompts returns a copy of every prompt seen so far.
func (s *ScriptedLLM) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *ScriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

var _ Agent = (*ScriptedLLM)(nil)
