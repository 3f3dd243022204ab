// Package inbox pulls messages from a mailbox and feeds them through the
// triage service.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailtriage/internal/config"
	"mailtriage/internal/logger"
)

var ErrNoProvider = errors.New("no inbox provider configured")

// RawMessage is one RFC 822 message as fetched from the mailbox.
type RawMessage struct {
	// ID is stable across fetches and is used for deduplication.
	ID         string
	Provider   string
	ReceivedAt time.Time
	Raw        []byte
}

type Source interface {
	Name() string
	Fetch(ctx context.Context, label string, max int) ([]RawMessage, error)
}

// NewSource builds the source selected by INBOX_PROVIDER.
func NewSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (Source, error) {
	switch cfg.InboxProvider {
	case "":
		return nil, ErrNoProvider
	case "imap":
		return NewIMAPSource(IMAPOptions{
			Host:     cfg.IMAPHost,
			Port:     cfg.IMAPPort,
			TLS:      cfg.IMAPTLS,
			User:     cfg.IMAPUser,
			Password: cfg.IMAPPassword,
		}, log), nil
	case "gmail":
		return NewGmailSource(ctx, GmailOptions{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
		}, log)
	default:
		return nil, fmt.Errorf("unknown inbox provider %q", cfg.InboxProvider)
	}
}
