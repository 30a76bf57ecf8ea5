package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Protocol-Lattice/perplexia/pkg/models"
	"github.com/Protocol-Lattice/perplexia/pkg/sandbox"
)

// Request is one question plus the conversation so far.
type Request struct {
	Question string
	History  []Message
}

// Result is what a single run produced. Artifact holds the validated
// expression or snippet when a tool branch ran.
type Result struct {
	Answer   string
	Category Category
	Strategy StrategyID
	Artifact string
}

// Options configure a Chat.
type Options struct {
	Model   models.Agent
	Variant Variant
	// Runner executes datetime snippets. When nil and the variant has tool
	// branches, a sandbox runner with default settings is created.
	Runner SnippetRunner
	Logger *zap.Logger
}

// Chat is the classify-then-route workflow. It holds no per-request state
// and is safe for concurrent use.
type Chat struct {
	model      models.Agent
	variant    Variant
	classifier *Classifier
	runner     SnippetRunner
	logger     *zap.Logger
}

func New(opts Options) (*Chat, error) {
	if opts.Model == nil {
		return nil, errors.New("router requires a language model")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := opts.Runner
	if runner == nil && opts.Variant == VariantTools {
		r, err := sandbox.New(sandbox.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		runner = r
	}
	return &Chat{
		model:      opts.Model,
		variant:    opts.Variant,
		classifier: NewClassifier(opts.Model, opts.Variant),
		runner:     runner,
		logger:     logger,
	}, nil
}

func (c *Chat) Variant() Variant { return c.variant }

// Process answers question given the optional history.
func (c *Chat) Process(ctx context.Context, question string, history []Message) (string, error) {
	res, err := c.Run(ctx, Request{Question: question, History: history})
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// Run classifies the request, routes it and executes the chosen strategy.
func (c *Chat) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Question) == "" {
		return Result{}, ErrEmptyQuestion
	}

	start := time.Now()
	log := c.logger.With(zap.String("request_id", uuid.NewString()))

	category, err := c.classifier.Classify(ctx, req.Question, req.History)
	if err != nil {
		log.Warn("classification failed", zap.Error(err))
		return Result{}, err
	}
	strategy := Route(category)
	history := FlattenHistory(req.History)

	res := Result{Category: category, Strategy: strategy}
	switch strategy {
	case StrategyCalculation:
		res.Answer, res.Artifact, err = respondCalculation(ctx, c.model, req.Question, history)
	case StrategyDatetime:
		if c.runner == nil {
			err = errors.New("datetime strategy has no snippet runner")
			break
		}
		res.Answer, res.Artifact, err = respondDatetime(ctx, c.model, c.runner, req.Question, history)
	default:
		res.Answer, err = respondDirect(ctx, c.model, strategy, req.Question, history)
	}
	if err != nil {
		log.Warn("strategy failed",
			zap.String("category", string(category)),
			zap.String("strategy", string(strategy)),
			zap.Error(err),
		)
		return Result{}, err
	}

	log.Info("question answered",
		zap.String("category", string(category)),
		zap.String("strategy", string(strategy)),
		zap.String("artifact", res.Artifact),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}
