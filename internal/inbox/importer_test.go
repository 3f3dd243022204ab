package inbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/logger"
	"mailtriage/internal/model"
	"mailtriage/internal/service"
)

type fakeSource struct {
	messages []RawMessage
	err      error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context, label string, max int) ([]RawMessage, error) {
	return f.messages, f.err
}

type fakeProcessor struct {
	mu     sync.Mutex
	ready  bool
	texts  []string
	failOn string
}

func (p *fakeProcessor) EngineReady() bool { return p.ready }

func (p *fakeProcessor) ProcessNewEmail(ctx context.Context, text string) (*model.ProcessedEmail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn != "" && strings.Contains(text, p.failOn) {
		return nil, errors.New("quota exceeded")
	}
	p.texts = append(p.texts, text)
	return &model.ProcessedEmail{ID: len(p.texts)}, nil
}

func rawMessage(id, subject string) RawMessage {
	raw := fmt.Sprintf("From: a@b.com\r\nSubject: %s\r\nContent-Type: text/plain\r\n\r\nbody of %s\r\n", subject, id)
	return RawMessage{ID: id, Provider: "fake", Raw: []byte(raw)}
}

func TestImportProcessesAndDedups(t *testing.T) {
	src := &fakeSource{messages: []RawMessage{
		rawMessage("m1", "Quote please"),
		rawMessage("m2", "PO 42"),
		rawMessage("m3", "Where is my order"),
	}}
	proc := &fakeProcessor{ready: true}
	imp := NewImporter(src, proc, NewMemoryDeduper(), 2, logger.Nop())

	res, err := imp.Import(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, Result{Fetched: 3, Processed: 3}, res)
	assert.Len(t, proc.texts, 3)

	res, err = imp.Import(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, Result{Fetched: 3, Skipped: 3}, res)
	assert.Len(t, proc.texts, 3)
}

func TestImportRetriesFailedMessages(t *testing.T) {
	src := &fakeSource{messages: []RawMessage{
		rawMessage("ok", "fine"),
		rawMessage("bad", "explode"),
	}}
	proc := &fakeProcessor{ready: true, failOn: "explode"}
	imp := NewImporter(src, proc, nil, 4, logger.Nop())

	res, err := imp.Import(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, Result{Fetched: 2, Processed: 1, Failed: 1}, res)

	proc.failOn = ""
	res, err = imp.Import(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, Result{Fetched: 2, Skipped: 1, Processed: 1}, res)
}

func TestImportErrors(t *testing.T) {
	imp := NewImporter(&fakeSource{}, &fakeProcessor{}, nil, 1, logger.Nop())
	_, err := imp.Import(context.Background(), "INBOX", 10)
	assert.ErrorIs(t, err, service.ErrEngineNotReady)

	boom := errors.New("connection refused")
	imp = NewImporter(&fakeSource{err: boom}, &fakeProcessor{ready: true}, nil, 1, logger.Nop())
	_, err = imp.Import(context.Background(), "INBOX", 10)
	assert.ErrorIs(t, err, boom)
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()
	assert.True(t, d.Acquire(ctx, "x"))
	assert.False(t, d.Acquire(ctx, "x"))
	d.Release(ctx, "x")
	assert.True(t, d.Acquire(ctx, "x"))
}

func TestRedisDeduperFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	d := NewRedisDeduper(rdb, time.Hour, logger.Nop())
	assert.True(t, d.Acquire(context.Background(), "m1"))
	assert.True(t, d.Acquire(context.Background(), "m1"))
	d.Release(context.Background(), "m1")
}
