package repository

import (
	"context"
	"errors"

	"mailtriage/internal/model"
)

var (
	// ErrPersistence marks failures reading or writing the table storage.
	ErrPersistence = errors.New("persistence error")
	ErrNoBackup    = errors.New("no backup available")
)

// EmailTableRepository stores the whole processed email table. Rows are kept
// in table order, newest first.
type EmailTableRepository interface {
	Load(ctx context.Context) ([]*model.ProcessedEmail, error)
	Save(ctx context.Context, rows []*model.ProcessedEmail) error
	// Restore replaces the table with the backup copy and returns it.
	Restore(ctx context.Context) ([]*model.ProcessedEmail, error)
}

// CloneRows deep-copies rows so callers never share row pointers with storage.
func CloneRows(rows []*model.ProcessedEmail) []*model.ProcessedEmail {
	out := make([]*model.ProcessedEmail, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
