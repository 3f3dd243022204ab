package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/repository"
	"mailtriage/internal/service"
)

const tableCSV = `ID,Date,Name,Email,Subject,Category,Priority,Status,Remarks,Draft Reply,Original Email
1,2025-07-16 14:40:00,Jane Doe,jane@example.com,Need a quote,Quote Request,High,Pending,,"Hi Jane,",orig
2,2025-07-16 14:41:00,Bob,bob@example.com,Hello,Other,Low,Done,,No reply needed for this category.,orig
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("INBOX_PROVIDER", "")
	t.Setenv("STORAGE", "")
	t.Setenv("DATABASE_URL", "")

	// flag values survive between Execute calls
	for _, c := range []struct {
		flags interface{ Set(string, string) error }
		name  string
	}{
		{rootCmd.PersistentFlags(), "storage"},
		{rootCmd.PersistentFlags(), "csv"},
		{exportCmd.Flags(), "out"},
		{exportCmd.Flags(), "format"},
		{clearCmd.Flags(), "confirm"},
		{processCmd.Flags(), "json"},
	} {
		val := ""
		if c.name == "json" {
			val = "false"
		}
		require.NoError(t, c.flags.Set(c.name, val))
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader("From: a@b.c\nSubject: hi\n\nbody"))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emails.csv")
	require.NoError(t, os.WriteFile(path, []byte(tableCSV), 0o644))
	return path
}

func TestExportCommandWritesCSV(t *testing.T) {
	path := writeTable(t)

	out, err := run(t, "export", "--csv", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Date,Name"))
	assert.Contains(t, lines[1], "Jane Doe")
}

func TestExportCommandWritesXLSXFile(t *testing.T) {
	path := writeTable(t)
	dest := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := run(t, "export", "--csv", path, "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 emails")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	// xlsx is a zip archive
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestExportCommandRejectsUnknownFormat(t *testing.T) {
	path := writeTable(t)
	_, err := run(t, "export", "--csv", path, "--format", "pdf")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestClearCommandNeedsConfirmation(t *testing.T) {
	path := writeTable(t)

	_, err := run(t, "clear", "--csv", path)
	assert.ErrorIs(t, err, service.ErrConfirmationRequired)

	out, err := run(t, "clear", "--csv", path, "--confirm", "DELETE ALL")
	require.NoError(t, err)
	assert.Contains(t, out, "All email data cleared")

	out, err = run(t, "export", "--csv", path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)
}

func TestRestoreCommand(t *testing.T) {
	path := writeTable(t)

	_, err := run(t, "restore", "--csv", path)
	assert.ErrorIs(t, err, repository.ErrNoBackup)

	require.NoError(t, os.WriteFile(path+".backup", []byte(tableCSV), 0o644))
	out, err := run(t, "restore", "--csv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 2 emails")
}

func TestProcessCommandWithoutKey(t *testing.T) {
	_, err := run(t, "process", "--storage", "memory")
	assert.ErrorIs(t, err, service.ErrEngineNotReady)
}

func TestImportCommandWithoutProvider(t *testing.T) {
	_, err := run(t, "import", "--storage", "memory")
	assert.ErrorContains(t, err, "INBOX_PROVIDER")
}
