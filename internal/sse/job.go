package sse

import (
	"context"
	"fmt"
	"time"

	"mailtriage/internal/inbox"
	"mailtriage/internal/logger"
)

// Importer is satisfied by *inbox.Importer.
type Importer interface {
	Import(ctx context.Context, label string, max int) (inbox.Result, error)
}

// InboxPollJob imports new mailbox messages on a fixed interval and tells
// open dashboards how many arrived.
type InboxPollJob struct {
	importer Importer
	notifier *SSEManager
	logger   *logger.Logger
	interval time.Duration
	label    string
	max      int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewInboxPollJob(importer Importer, notifier *SSEManager, logger *logger.Logger, interval time.Duration, label string, max int) *InboxPollJob {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InboxPollJob{
		importer: importer,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		label:    label,
		max:      max,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RunOnce performs a single import and reports the counts.
func (j *InboxPollJob) RunOnce() (inbox.Result, error) {
	res, err := j.importer.Import(j.ctx, j.label, j.max)
	if err != nil {
		j.logger.Errorf("inbox poll failed: %v", err)
		return res, err
	}
	if res.Processed > 0 && j.notifier != nil {
		j.notifier.Broadcast("inbox_import", map[string]interface{}{
			"result":  res,
			"message": fmt.Sprintf("%d new emails received and processed", res.Processed),
		})
	}
	return res, nil
}

// Start blocks until Stop is called. Polls never overlap.
func (j *InboxPollJob) Start() {
	j.logger.Infof("starting inbox poll job with interval %s", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce()
	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.ctx.Done():
			j.logger.Info("inbox poll job stopped")
			return
		}
	}
}

func (j *InboxPollJob) Stop() {
	j.cancel()
}

func (j *InboxPollJob) Interval() time.Duration {
	return j.interval
}
