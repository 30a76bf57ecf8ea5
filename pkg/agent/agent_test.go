package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Protocol-Lattice/perplexia/pkg/models"
)

type stubTool struct {
	spec      ToolSpec
	lastInput ToolRequest
	calls     int
	reply     string
	err       error
}

func (t *stubTool) Spec() ToolSpec { return t.spec }

func (t *stubTool) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	t.calls++
	t.lastInput = req
	if t.err != nil {
		return ToolResponse{}, t.err
	}
	if t.reply != "" {
		return ToolResponse{Content: t.reply}, nil
	}
	val, _ := StringArg(req.Arguments, "input")
	return ToolResponse{Content: val}, nil
}

type stubSubAgent struct {
	name        string
	description string
}

func (s *stubSubAgent) Name() string        { return s.name }
func (s *stubSubAgent) Description() string { return s.description }
func (s *stubSubAgent) Run(ctx context.Context, input string) (string, error) {
	return input, nil
}

func newStubTool(name string) *stubTool {
	return &stubTool{spec: ToolSpec{
		Name:        name,
		Description: "stub tool " + name,
		InputSchema: map[string]any{"type": "object"},
	}}
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without a model")
	}
}

func TestNewRejectsDuplicateTools(t *testing.T) {
	_, err := New(Options{
		Model: models.NewScriptedLLM("x"),
		Tools: []Tool{newStubTool("calc"), newStubTool("CALC")},
	})
	if err == nil {
		t.Fatalf("expected duplicate tool error")
	}
}

func TestRespondRunsChosenToolThenAnswers(t *testing.T) {
	calc := newStubTool("calculator")
	calc.reply = "42"

	// The second prompt carries the observation, so it matches the more
	// specific rule first.
	model := models.NewScriptedLLM("unused").
		On("calculator {\"expression\":\"6*7\"} => 42", `{"use_tool": false, "answer": "The answer is 42."}`).
		On("User question", "```json\n{\"use_tool\": true, \"tool_name\": \"calculator\", \"arguments\": {\"expression\": \"6*7\"}}\n```")

	a, err := New(Options{Model: model, Tools: []Tool{calc}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := a.Respond(context.Background(), "s1", "what is 6*7?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out != "The answer is 42." {
		t.Fatalf("unexpected answer %q", out)
	}
	if calc.calls != 1 {
		t.Fatalf("expected one tool call, got %d", calc.calls)
	}
	if got := calc.lastInput.Arguments["expression"]; got != "6*7" {
		t.Fatalf("unexpected tool arguments %#v", calc.lastInput.Arguments)
	}
	if calc.lastInput.SessionID != "s1" {
		t.Fatalf("expected session id to reach the tool, got %q", calc.lastInput.SessionID)
	}

	prompts := model.Prompts()
	if len(prompts) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "calculator: stub tool calculator") || !strings.Contains(prompts[0], `Input schema: {"type":"object"}`) {
		t.Fatalf("expected tool specs in prompt, got:\n%s", prompts[0])
	}
}

func TestRespondTreatsNonJSONAsFinalAnswer(t *testing.T) {
	a, err := New(Options{Model: models.NewScriptedLLM("Paris is the capital of France.")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := a.Respond(context.Background(), "s", "capital of France?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out != "Paris is the capital of France." {
		t.Fatalf("unexpected answer %q", out)
	}
}

func TestRespondToolErrorsBecomeObservations(t *testing.T) {
	broken := newStubTool("weather")
	broken.err = errors.New("upstream timeout")

	model := models.NewScriptedLLM("unused").
		On("tool error: upstream timeout", `{"use_tool": false, "answer": "Weather is unavailable right now."}`).
		On("User question", `{"use_tool": true, "tool_name": "weather", "arguments": {"location": "Oslo"}}`)

	a, err := New(Options{Model: model, Tools: []Tool{broken}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := a.Respond(context.Background(), "s", "weather in Oslo?")
	if err != nil {
		t.Fatalf("expected tool failure to be recovered, got %v", err)
	}
	if out != "Weather is unavailable right now." {
		t.Fatalf("unexpected answer %q", out)
	}
}

func TestRespondUnknownToolIsObserved(t *testing.T) {
	model := models.NewScriptedLLM("unused").
		On(`unknown tool "nope"`, `{"use_tool": false, "answer": "done"}`).
		On("User question", `{"use_tool": true, "tool_name": "nope", "arguments": {}}`)

	a, _ := New(Options{Model: model})
	out, err := a.Respond(context.Background(), "s", "anything")
	if err != nil || out != "done" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
}

func TestRespondStopsAfterMaxSteps(t *testing.T) {
	loop := newStubTool("loop")
	model := models.NewScriptedLLM(`{"use_tool": true, "tool_name": "loop", "arguments": {"input": "again"}}`)

	a, _ := New(Options{Model: model, Tools: []Tool{loop}, MaxSteps: 3})
	_, err := a.Respond(context.Background(), "s", "spin")
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}
	if loop.calls != 3 || model.Calls() != 3 {
		t.Fatalf("expected 3 steps, got %d tool calls and %d model calls", loop.calls, model.Calls())
	}
}

func TestRespondPropagatesModelErrors(t *testing.T) {
	boom := errors.New("service down")
	a, _ := New(Options{Model: models.NewScriptedLLM("x").Fail("User question", boom)})
	if _, err := a.Respond(context.Background(), "s", "hi"); !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestRespondRejectsEmptyInput(t *testing.T) {
	a, _ := New(Options{Model: models.NewScriptedLLM("x")})
	if _, err := a.Respond(context.Background(), "s", "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRespondKeepsSessionHistory(t *testing.T) {
	model := models.NewScriptedLLM("noted")
	a, _ := New(Options{Model: model})
	ctx := context.Background()

	if _, err := a.Respond(ctx, "s", "my name is Ada"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := a.Respond(ctx, "s", "what is my name?"); err != nil {
		t.Fatalf("second turn: %v", err)
	}
	prompts := model.Prompts()
	if !strings.Contains(prompts[1], "my name is Ada") {
		t.Fatalf("expected history in second prompt:\n%s", prompts[1])
	}
	if got := len(a.History("s")); got != 4 {
		t.Fatalf("expected 4 stored turns, got %d", got)
	}
	if len(a.History("other")) != 0 {
		t.Fatalf("sessions must be isolated")
	}
}

func TestDirectToolCommand(t *testing.T) {
	echo := newStubTool("echo")
	model := models.NewScriptedLLM("unused")
	a, _ := New(Options{Model: model, Tools: []Tool{echo}})

	out, err := a.Respond(context.Background(), "s", `tool:echo {"input": "hello"}`)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out != "hello" {
		t.Fatalf("unexpected output %q", out)
	}
	if model.Calls() != 0 {
		t.Fatalf("direct commands must bypass the model")
	}

	out, _ = a.Respond(context.Background(), "s", "tool:echo plain text")
	if out != "plain text" {
		t.Fatalf("expected free-form input, got %q", out)
	}

	if _, err := a.Respond(context.Background(), "s", "tool:missing {}"); err == nil {
		t.Fatalf("expected unknown tool error")
	}
}

func TestSubAgentCommandAndTool(t *testing.T) {
	sub := &stubSubAgent{name: "researcher", description: "digs"}
	a, err := New(Options{Model: models.NewScriptedLLM("unused"), SubAgents: []SubAgent{sub}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := a.Respond(context.Background(), "s", "subagent:researcher find Go history")
	if err != nil || out != "find Go history" {
		t.Fatalf("unexpected subagent result %q, %v", out, err)
	}

	specs := a.ToolSpecs()
	if len(specs) != 1 || specs[0].Name != "researcher" {
		t.Fatalf("expected subagent to be exposed as a tool, got %#v", specs)
	}
}

func TestParseDecision(t *testing.T) {
	cases := []struct {
		in     string
		ok     bool
		useTol bool
	}{
		{`{"use_tool": true, "tool_name": "x", "arguments": {}}`, true, true},
		{"Sure!\n```json\n{\"use_tool\": false, \"answer\": \"hi\"}\n```", true, false},
		{`{"use_tool": true}`, false, false},
		{"no json here", false, false},
		{"{broken", false, false},
	}
	for _, tc := range cases {
		d, ok := parseDecision(tc.in)
		if ok != tc.ok || d.UseTool != tc.useTol {
			t.Fatalf("parseDecision(%q) = %#v, %v", tc.in, d, ok)
		}
	}
}
