package inbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailtriage/internal/logger"
)

type GmailOptions struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GmailSource lists messages under a label and downloads them in raw form.
type GmailSource struct {
	service *gmail.Service
	logger  *logger.Logger
}

func NewGmailSource(ctx context.Context, opts GmailOptions, log *logger.Logger) (*GmailSource, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" || opts.RefreshToken == "" {
		return nil, errors.New("gmail client id, secret and refresh token are required")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: opts.RefreshToken})

	return NewGmailSourceWithOptions(ctx, log, option.WithTokenSource(tokenSource))
}

// NewGmailSourceWithOptions builds the source from raw client options.
func NewGmailSourceWithOptions(ctx context.Context, log *logger.Logger, opts ...option.ClientOption) (*GmailSource, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailSource{service: svc, logger: log}, nil
}

func (s *GmailSource) Name() string { return "gmail" }

func (s *GmailSource) Fetch(ctx context.Context, label string, max int) ([]RawMessage, error) {
	user := "me"
	call := s.service.Users.Messages.List(user).Q("is:unread").Context(ctx)
	if label != "" {
		call = call.LabelIds(label)
	}
	if max > 0 {
		call = call.MaxResults(int64(max))
	}
	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	out := make([]RawMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if ref.Id == "" {
			continue
		}
		msg, err := s.service.Users.Messages.Get(user, ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Errorf("failed to get message %s: %v", ref.Id, err)
			continue
		}
		raw, err := decodeBase64URL(msg.Raw)
		if err != nil {
			s.logger.Errorf("failed to decode message %s: %v", ref.Id, err)
			continue
		}

		received := time.Now()
		if msg.InternalDate > 0 {
			received = time.UnixMilli(msg.InternalDate)
		}
		out = append(out, RawMessage{
			ID:         "gmail-" + msg.Id,
			Provider:   s.Name(),
			ReceivedAt: received,
			Raw:        raw,
		})
	}

	s.logger.Infof("fetched %d unread messages from Gmail", len(out))
	return out, nil
}

// decodeBase64URL accepts both padded and unpadded URL-safe base64.
func decodeBase64URL(input string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(input, "="))
}
