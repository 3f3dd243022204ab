// Package engine is the process-wide entry point for email processing. It
// owns lazy, retry-safe initialization of the completion backend and the
// pipeline built on it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mailtriage/internal/ai"
	"mailtriage/internal/config"
	"mailtriage/internal/fewshot"
	"mailtriage/internal/logger"
	"mailtriage/internal/metrics"
	"mailtriage/internal/model"
	"mailtriage/internal/pipeline"
)

const DefaultK = 3

var ErrNotInitialized = errors.New("email engine not initialized: call Initialize first")

// ClientFactory builds the completion backend for an API key.
type ClientFactory func(apiKey string) (pipeline.CompletionClient, error)

// AIClientFactory builds hosted-model clients for provider and model.
func AIClientFactory(provider, modelName string, log *logger.Logger) ClientFactory {
	return func(apiKey string) (pipeline.CompletionClient, error) {
		c, err := ai.NewClient(ai.Options{Provider: provider, APIKey: apiKey, Model: modelName}, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type Options struct {
	Factory ClientFactory
	// KeyLookup resolves the API key when Initialize gets an empty one.
	// Defaults to config.APIKeyFromEnv.
	KeyLookup func() string
	// BankPath overrides the built-in example bank.
	BankPath    string
	K           int
	Selector    fewshot.Selector
	CallTimeout time.Duration
	Logger      *logger.Logger
}

type Engine struct {
	opts   Options
	logger *logger.Logger

	mu       sync.Mutex
	pipeline atomic.Pointer[pipeline.Pipeline]
}

func New(opts Options) *Engine {
	if opts.KeyLookup == nil {
		opts.KeyLookup = config.APIKeyFromEnv
	}
	if opts.K <= 0 {
		opts.K = DefaultK
	}
	if opts.Selector == nil {
		opts.Selector = fewshot.SelectFirst
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	opts.Logger.Info("email engine created (not initialized yet)")
	return &Engine{opts: opts, logger: opts.Logger}
}

// Initialize builds the completion client and pipeline. It is idempotent and
// safe to call concurrently; a failed attempt leaves the engine
// uninitialized so it can be retried.
func (e *Engine) Initialize(apiKey string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pipeline.Load() != nil {
		e.logger.Info("email engine already initialized")
		return true
	}

	if apiKey == "" {
		apiKey = e.opts.KeyLookup()
	}
	if apiKey == "" {
		e.logger.Error("GEMINI_API_KEY not found; set GEMINI_API_KEY (or AI_API_KEY) in the environment or .env file")
		return false
	}
	e.logger.Infof("found API key: %s", MaskKey(apiKey))

	if e.opts.Factory == nil {
		e.logger.Error("failed to initialize email engine: no completion client factory configured")
		return false
	}
	client, err := e.opts.Factory(apiKey)
	if err != nil {
		e.logger.Errorf("failed to initialize email engine: %v", err)
		return false
	}

	bank, err := fewshot.Load(e.opts.BankPath)
	if err != nil {
		e.logger.Errorf("failed to initialize email engine: %v", err)
		return false
	}
	examples := bank.Select(e.opts.K, e.opts.Selector)
	e.logger.Infof("conditioning classifier on %d of %d examples", len(examples), bank.Len())

	e.pipeline.Store(pipeline.New(client, examples, pipeline.Options{
		CallTimeout: e.opts.CallTimeout,
		Logger:      e.logger,
	}))
	e.logger.Info("email engine initialized")
	return true
}

func (e *Engine) IsInitialized() bool {
	return e.pipeline.Load() != nil
}

// ProcessEmail classifies emailText and drafts a reply. The only error
// returned is ErrNotInitialized; pipeline failures come back as a result
// with Success false.
func (e *Engine) ProcessEmail(ctx context.Context, emailText string) (result model.ProcessResult, err error) {
	p := e.pipeline.Load()
	if p == nil {
		return model.ProcessResult{}, ErrNotInitialized
	}

	runID := uuid.NewString()
	log := e.logger.With("run_id", runID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic while processing email: %v", r)
			result = errorResult(runID, fmt.Errorf("%v", r))
			err = nil
		}
		metrics.RecordEmailProcessed(result.Category, result.Success, time.Since(start))
	}()

	log.Info("processing email through pipeline")
	out, perr := p.Run(ctx, emailText)
	if perr != nil {
		log.Errorf("error processing email: %v", perr)
		return errorResult(runID, perr), nil
	}

	log.Infof("email classified as: %s", out.Category)
	return model.ProcessResult{
		Category:   out.Category,
		DraftReply: out.DraftReply,
		Success:    true,
		RunID:      runID,
	}, nil
}

func errorResult(runID string, err error) model.ProcessResult {
	return model.ProcessResult{
		Category:   model.CategoryError,
		DraftReply: "Error processing email: " + err.Error(),
		Success:    false,
		RunID:      runID,
	}
}

// MaskKey keeps the first 10 characters of key and stars out the rest.
// Keys of 10 characters or fewer are masked entirely.
func MaskKey(key string) string {
	if len(key) <= 10 {
		return strings.Repeat("*", len(key))
	}
	return key[:10] + strings.Repeat("*", len(key)-10)
}
