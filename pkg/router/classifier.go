package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/Protocol-Lattice/perplexia/pkg/models"
)

// Classifier labels a question with one generation call.
type Classifier struct {
	model   models.Agent
	variant Variant
}

func NewClassifier(model models.Agent, variant Variant) *Classifier {
	return &Classifier{model: model, variant: variant}
}

// Classify returns the normalised category. Only a failing generation call
// produces an error, and that error wraps ErrClassificationUnavailable.
func (c *Classifier) Classify(ctx context.Context, question string, history []Message) (Category, error) {
	prompt := renderPrompt(classifierPrompt(c.variant), question, FlattenHistory(history))
	raw, err := generate(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClassificationUnavailable, err)
	}
	return Normalize(raw, c.variant), nil
}

// generate returns the raw completion. A blank completion is not an error
// here: callers that validate the text treat it as empty output.
func generate(ctx context.Context, model models.Agent, prompt string) (string, error) {
	res, err := model.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, models.ErrEmptyCompletion) {
			return "", nil
		}
		return "", err
	}
	return models.Text(res), nil
}
