package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/model"
	"mailtriage/internal/repository"
)

// openTestDB connects to TEST_DATABASE_URL with empty tables, or skips.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{primaryTable, backupTable, backupStateTable} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	return db
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresEmailTableRepository(openTestDB(t))
	rows := []*model.ProcessedEmail{
		{ID: 2, Date: "2025-07-16 14:40:00", Name: "Brian", Email: "brian@apex.com", Subject: "PO",
			Category: model.CategoryNewOrderReceived, Priority: model.PriorityHigh, Status: model.StatusPending,
			Remarks: "Auto-classified as New Order Received", DraftReply: "Thanks", OriginalEmail: "raw"},
		{ID: 1, Date: "2025-07-15 08:00:00", Name: "Jane", Email: "N/A", Subject: "No Subject",
			Category: model.CategoryOther, Priority: model.PriorityLow, Status: model.StatusDone,
			DraftReply: model.NoReplySentinel},
	}

	require.NoError(t, repo.Save(ctx, rows))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)

	require.NoError(t, repo.Save(ctx, rows[:1]))
	restored, err := repo.Restore(ctx)
	require.NoError(t, err)
	assert.Len(t, restored, 1)
}

func TestPostgresRestoreEmptyBackup(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresEmailTableRepository(openTestDB(t))

	_, err := repo.Restore(ctx)
	assert.ErrorIs(t, err, repository.ErrNoBackup)
	assert.False(t, repo.HasBackup())

	// clearing the table leaves an empty backup, which still restores
	require.NoError(t, repo.Save(ctx, []*model.ProcessedEmail{}))
	assert.True(t, repo.HasBackup())

	restored, err := repo.Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, restored)
}
