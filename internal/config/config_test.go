package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CSV_FILE_PATH", "data/emails.csv")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AI_API_KEY", "fallback-key")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "data/emails.csv", cfg.CSVFilePath)
	assert.Equal(t, "data/emails.csv.backup", cfg.BackupFilePath)
	assert.Equal(t, "fallback-key", cfg.AIKey)
	assert.Equal(t, "csv", cfg.Storage)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigPrefersGeminiKeyAndPostgres(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("AI_API_KEY", "other")
	t.Setenv("DATABASE_URL", "postgres://localhost/mail")
	t.Setenv("STORAGE", "")
	t.Setenv("AI_CALL_TIMEOUT_SECONDS", "15")
	t.Setenv("FEW_SHOT_K", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gem-key", cfg.AIKey)
	assert.Equal(t, "postgres", cfg.Storage)
	assert.Equal(t, 15*time.Second, cfg.AICallTimeout)
	assert.Equal(t, 5, cfg.FewShotK)
}

func TestGetEnvIntAndBool(t *testing.T) {
	t.Setenv("SOME_INT", " 42 ")
	t.Setenv("BAD_INT", "forty")
	t.Setenv("SOME_BOOL", "false")

	assert.Equal(t, 42, GetEnvInt("SOME_INT", 1))
	assert.Equal(t, 1, GetEnvInt("BAD_INT", 1))
	assert.Equal(t, 7, GetEnvInt("UNSET_INT_FOR_TEST", 7))
	assert.False(t, GetEnvBool("SOME_BOOL", true))
	assert.True(t, GetEnvBool("UNSET_BOOL_FOR_TEST", true))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AICallTimeout:     time.Second,
			FewShotK:          3,
			ImportConcurrency: 1,
			InboxFetchMax:     10,
			Storage:           "csv",
			SessionSecret:     "s",
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.Storage = "postgres"
	assert.Error(t, c.Validate())

	c = base()
	c.InboxProvider = "imap"
	assert.Error(t, c.Validate())

	c = base()
	c.InboxProvider = "pop3"
	assert.Error(t, c.Validate())

	c = base()
	c.ImportConcurrency = 0
	assert.Error(t, c.Validate())
}
