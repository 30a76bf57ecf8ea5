package router

import (
	"context"
	"errors"
	"strings"

	"github.com/Protocol-Lattice/perplexia/pkg/calculator"
	"github.com/Protocol-Lattice/perplexia/pkg/models"
	"github.com/Protocol-Lattice/perplexia/pkg/sandbox"
)

// SnippetRunner executes a validated datetime snippet.
type SnippetRunner interface {
	Run(ctx context.Context, snippet string) (string, error)
}

// respondDirect is shared by the five generation-only strategies. The
// completion is returned verbatim and failures propagate unchanged.
func respondDirect(ctx context.Context, model models.Agent, id StrategyID, question, history string) (string, error) {
	tmpl, ok := responsePrompts[id]
	if !ok {
		tmpl = responsePrompts[StrategyDefault]
	}
	return models.Complete(ctx, model, renderPrompt(tmpl, question, history))
}

// respondCalculation turns the question into an expression and evaluates it.
// Rejected expressions and evaluator errors become answers, not errors.
func respondCalculation(ctx context.Context, model models.Agent, question, history string) (answer, artifact string, err error) {
	raw, err := generate(ctx, model, renderPrompt(responsePrompts[StrategyCalculation], question, history))
	if err != nil {
		return "", "", err
	}
	expr, err := ValidateExpression(raw)
	if err != nil {
		return calculationApology, "", nil
	}
	return CalculationAnswer(expr), expr, nil
}

// CalculationAnswer evaluates a gated expression and renders the outcome.
func CalculationAnswer(expr string) string {
	v, err := calculator.Evaluate(expr)
	if err != nil {
		if errors.Is(err, calculator.ErrDivisionByZero) {
			return "Error: division by zero"
		}
		return "Error: " + err.Error()
	}
	return v.String()
}

// respondDatetime turns the question into a Go snippet and runs it in the
// sandbox. Rejected snippets and execution failures become answers.
func respondDatetime(ctx context.Context, model models.Agent, runner SnippetRunner, question, history string) (answer, artifact string, err error) {
	raw, err := generate(ctx, model, renderPrompt(responsePrompts[StrategyDatetime], question, history))
	if err != nil {
		return "", "", err
	}
	code, err := ValidateSnippet(raw)
	if err != nil {
		return datetimeApology, "", nil
	}
	return DatetimeAnswer(ctx, runner, code), code, nil
}

// DatetimeAnswer runs a gated snippet and renders the outcome.
func DatetimeAnswer(ctx context.Context, runner SnippetRunner, code string) string {
	out, err := runner.Run(ctx, code)
	if err != nil {
		return "Execution error: " + executionMessage(err)
	}
	return strings.TrimSpace(out)
}

func executionMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, sandbox.ErrExecution) {
		msg = strings.TrimPrefix(msg, sandbox.ErrExecution.Error()+": ")
	}
	return msg
}
