package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/model"
	"mailtriage/internal/repository"
)

func TestLoadReturnsCopies(t *testing.T) {
	r := NewInMemoryEmailTableRepository(&model.ProcessedEmail{ID: 1, Status: model.StatusPending})

	rows, err := r.Load(context.Background())
	require.NoError(t, err)
	rows[0].Status = model.StatusDone

	again, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, again[0].Status)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryEmailTableRepository()

	_, err := r.Restore(ctx)
	assert.ErrorIs(t, err, repository.ErrNoBackup)

	require.NoError(t, r.Save(ctx, []*model.ProcessedEmail{{ID: 1}, {ID: 2}}))
	r.SetBackup([]*model.ProcessedEmail{{ID: 9}})

	rows, err := r.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].ID)

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)
}
