package memory

import (
	"context"
	"sync"

	"mailtriage/internal/model"
	"mailtriage/internal/repository"
)

// InMemoryEmailTableRepository keeps the table and its backup in process.
type InMemoryEmailTableRepository struct {
	rows      []*model.ProcessedEmail
	backup    []*model.ProcessedEmail
	hasBackup bool
	mutex     sync.RWMutex
}

func NewInMemoryEmailTableRepository(seed ...*model.ProcessedEmail) *InMemoryEmailTableRepository {
	return &InMemoryEmailTableRepository{rows: repository.CloneRows(seed)}
}

func (r *InMemoryEmailTableRepository) Load(ctx context.Context) ([]*model.ProcessedEmail, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.backup = repository.CloneRows(r.rows)
	r.hasBackup = true
	return repository.CloneRows(r.rows), nil
}

func (r *InMemoryEmailTableRepository) Save(ctx context.Context, rows []*model.ProcessedEmail) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.rows = repository.CloneRows(rows)
	r.backup = repository.CloneRows(rows)
	r.hasBackup = true
	return nil
}

func (r *InMemoryEmailTableRepository) Restore(ctx context.Context) ([]*model.ProcessedEmail, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.hasBackup {
		return nil, repository.ErrNoBackup
	}
	r.rows = repository.CloneRows(r.backup)
	return repository.CloneRows(r.rows), nil
}

// SetBackup overwrites the backup copy only.
func (r *InMemoryEmailTableRepository) SetBackup(rows []*model.ProcessedEmail) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.backup = repository.CloneRows(rows)
	r.hasBackup = true
}

func (r *InMemoryEmailTableRepository) HasBackup() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.hasBackup
}
