// Package pipeline runs the two-stage classify-then-reply flow for one email.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailtriage/internal/logger"
	"mailtriage/internal/metrics"
	"mailtriage/internal/model"
)

const DefaultCallTimeout = 60 * time.Second

var ErrEmptyCompletion = errors.New("model returned an empty completion")

// CompletionClient is the model backend the pipeline talks to.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Result struct {
	Category   string
	DraftReply string
}

type Options struct {
	// CallTimeout bounds each completion call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	Logger      *logger.Logger
}

type Pipeline struct {
	client      CompletionClient
	examples    []model.FewShotExample
	callTimeout time.Duration
	logger      *logger.Logger
}

// New builds a pipeline conditioned on examples. The slice is copied.
func New(client CompletionClient, examples []model.FewShotExample, opts Options) *Pipeline {
	ex := make([]model.FewShotExample, len(examples))
	copy(ex, examples)

	p := &Pipeline{
		client:      client,
		examples:    ex,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
	if p.callTimeout <= 0 {
		p.callTimeout = DefaultCallTimeout
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	return p
}

// Examples returns the conditioning examples in prompt order.
func (p *Pipeline) Examples() []model.FewShotExample {
	out := make([]model.FewShotExample, len(p.examples))
	copy(out, p.examples)
	return out
}

// Run classifies emailText and, unless the label is exactly Other, drafts a
// reply. Completion failures are returned wrapped.
func (p *Pipeline) Run(ctx context.Context, emailText string) (Result, error) {
	category, err := p.classify(ctx, emailText)
	if err != nil {
		return Result{}, err
	}

	if category == model.CategoryOther {
		return Result{Category: category, DraftReply: model.NoReplySentinel}, nil
	}

	reply, err := p.draftReply(ctx, category, emailText)
	if err != nil {
		return Result{}, err
	}
	return Result{Category: category, DraftReply: reply}, nil
}

func (p *Pipeline) classify(ctx context.Context, emailText string) (string, error) {
	raw, err := p.complete(ctx, "classify", BuildClassificationPrompt(emailText, p.examples))
	if err != nil {
		return "", fmt.Errorf("classification failed: %w", err)
	}
	category := ParseCategory(raw)
	if category == "" {
		return "", fmt.Errorf("classification failed: %w", ErrEmptyCompletion)
	}
	if !model.IsKnownCategory(category) {
		p.logger.Warnf("classifier returned unrecognized category %q", category)
	}
	return category, nil
}

func (p *Pipeline) draftReply(ctx context.Context, category, emailText string) (string, error) {
	raw, err := p.complete(ctx, "reply", BuildReplyPrompt(category, emailText))
	if err != nil {
		return "", fmt.Errorf("reply generation failed: %w", err)
	}
	reply := ParseDraftReply(raw)
	if reply == "" {
		return "", fmt.Errorf("reply generation failed: %w", ErrEmptyCompletion)
	}
	return reply, nil
}

func (p *Pipeline) complete(ctx context.Context, stage, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	start := time.Now()
	out, err := p.client.Complete(callCtx, prompt)
	metrics.RecordCompletion(stage, err == nil, time.Since(start))
	if err != nil {
		return "", err
	}
	return out, nil
}
