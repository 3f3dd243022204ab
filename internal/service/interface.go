package service

import (
	"context"
	"errors"

	"mailtriage/internal/model"
)

var (
	ErrEmailNotFound        = errors.New("email not found")
	ErrEmptyEmail           = errors.New("email text is empty")
	ErrProcessingFailed     = errors.New("error processing email")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrConfirmationRequired = errors.New("type 'DELETE ALL' to confirm")
	ErrEngineNotReady       = errors.New("AI engine is not initialized")
)

// ClearConfirmation must be passed to ClearAll.
const ClearConfirmation = "DELETE ALL"

// Event types published to ChangeNotifier.
const (
	EventEmailProcessed = "email_processed"
	EventTableChanged   = "table_changed"
)

type EmailService interface {
	EngineReady() bool
	ProcessNewEmail(ctx context.Context, emailText string) (*model.ProcessedEmail, error)
	ListEmails(ctx context.Context, filter Filter) ([]*model.ProcessedEmail, error)
	GetEmail(ctx context.Context, id int) (*model.ProcessedEmail, error)
	UpdateEmail(ctx context.Context, id int, update EmailUpdate) (*model.ProcessedEmail, error)
	MarkStatus(ctx context.Context, id int, status model.Status) (*model.ProcessedEmail, error)
	EditReply(ctx context.Context, id int, reply string) (*model.ProcessedEmail, error)
	BulkSetStatus(ctx context.Context, ids []int, status model.Status) (int, error)
	DeleteEmails(ctx context.Context, ids []int) (int, error)
	DeleteCompleted(ctx context.Context) (int, error)
	ClearAll(ctx context.Context, confirm string) error
	RestoreBackup(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*Stats, error)
	ActionQueue(ctx context.Context, filter Filter) ([]*ActionItem, error)
	Categories(ctx context.Context) ([]string, error)
	Overview(ctx context.Context, filter Filter) (*Overview, error)
}

// EmailEngine classifies emails and drafts replies.
type EmailEngine interface {
	IsInitialized() bool
	ProcessEmail(ctx context.Context, emailText string) (model.ProcessResult, error)
}

// ChangeNotifier is told about table changes so open dashboards can refresh.
type ChangeNotifier interface {
	Broadcast(eventType string, data interface{})
}
