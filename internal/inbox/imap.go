package inbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"mailtriage/internal/logger"
)

type IMAPOptions struct {
	Host     string
	Port     int
	TLS      bool
	User     string
	Password string
}

// IMAPSource reads unseen messages. Messages are fetched with BODY.PEEK so
// the server does not mark them seen.
type IMAPSource struct {
	opts   IMAPOptions
	logger *logger.Logger
}

func NewIMAPSource(opts IMAPOptions, log *logger.Logger) *IMAPSource {
	return &IMAPSource{opts: opts, logger: log}
}

func (s *IMAPSource) Name() string { return "imap" }

func (s *IMAPSource) dial() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	if s.opts.TLS {
		return imapclient.DialTLS(addr, &tls.Config{ServerName: s.opts.Host})
	}
	return imapclient.Dial(addr)
}

func (s *IMAPSource) Fetch(ctx context.Context, label string, max int) ([]RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := s.dial()
	if err != nil {
		return nil, fmt.Errorf("imap dial: %w", err)
	}
	defer c.Logout()

	// the client has no context support; dropping the connection unblocks it
	stop := context.AfterFunc(ctx, func() { c.Terminate() })
	defer stop()

	if err := c.Login(s.opts.User, s.opts.Password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(label, true); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", label, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if max > 0 && len(uids) > max {
		uids = uids[len(uids)-max:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() { done <- c.UidFetch(seqset, items, messages) }()

	out := make([]RawMessage, 0, len(uids))
	for msg := range messages {
		if msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("imap read body: %w", err)
		}
		out = append(out, RawMessage{
			ID:         messageID(msg),
			Provider:   s.Name(),
			ReceivedAt: receivedAt(msg.InternalDate),
			Raw:        raw,
		})
	}
	if err := <-done; err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	s.logger.Infof("fetched %d unseen messages from %s", len(out), label)
	return out, nil
}

func messageID(msg *imap.Message) string {
	if msg.Envelope != nil && msg.Envelope.MessageId != "" {
		return msg.Envelope.MessageId
	}
	return fmt.Sprintf("imap-%d", msg.Uid)
}

func receivedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
