package inbox

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"mailtriage/internal/logger"
	"mailtriage/internal/metrics"
	"mailtriage/internal/model"
	"mailtriage/internal/service"
)

// Processor is the part of service.EmailService the importer needs.
type Processor interface {
	EngineReady() bool
	ProcessNewEmail(ctx context.Context, emailText string) (*model.ProcessedEmail, error)
}

type Result struct {
	Fetched   int `json:"fetched"`
	Skipped   int `json:"skipped"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type Importer struct {
	source      Source
	processor   Processor
	dedup       Deduper
	concurrency int
	logger      *logger.Logger
}

func NewImporter(source Source, processor Processor, dedup Deduper, concurrency int, log *logger.Logger) *Importer {
	if dedup == nil {
		dedup = NewMemoryDeduper()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Importer{
		source:      source,
		processor:   processor,
		dedup:       dedup,
		concurrency: concurrency,
		logger:      log,
	}
}

// Import fetches up to max messages under label and processes the ones not
// imported before. Individual message failures are counted, not returned.
func (i *Importer) Import(ctx context.Context, label string, max int) (Result, error) {
	var res Result
	if !i.processor.EngineReady() {
		return res, service.ErrEngineNotReady
	}

	messages, err := i.source.Fetch(ctx, label, max)
	if err != nil {
		return res, fmt.Errorf("fetch from %s: %w", i.source.Name(), err)
	}
	res.Fetched = len(messages)

	var mu sync.Mutex
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(i.concurrency)
	for _, msg := range messages {
		msg := msg
		if !i.dedup.Acquire(ctx, msg.ID) {
			res.Skipped++
			continue
		}
		g.Go(func() error {
			text, err := ToEmailText(msg.Raw)
			if err != nil {
				// unparseable messages stay marked so they are not retried forever
				i.logger.Errorf("skipping message %s: %v", msg.ID, err)
				count(&res.Failed)
				return nil
			}
			entry, err := i.processor.ProcessNewEmail(ctx, text)
			if err != nil {
				i.dedup.Release(context.WithoutCancel(ctx), msg.ID)
				i.logger.Errorf("failed to process message %s: %v", msg.ID, err)
				count(&res.Failed)
				return nil
			}
			i.logger.Debugf("message %s imported as row %d", msg.ID, entry.ID)
			count(&res.Processed)
			return nil
		})
	}
	_ = g.Wait()

	metrics.AddInboxMessages("processed", res.Processed)
	metrics.AddInboxMessages("skipped", res.Skipped)
	metrics.AddInboxMessages("failed", res.Failed)

	i.logger.Infof("inbox import from %s: fetched=%d skipped=%d processed=%d failed=%d",
		i.source.Name(), res.Fetched, res.Skipped, res.Processed, res.Failed)

	return res, ctx.Err()
}
