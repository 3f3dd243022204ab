package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	AIProvider      string
	AIKey           string
	AIModel         string
	AICallTimeout   time.Duration
	FewShotK        int
	ExampleBankPath string

	Storage        string
	CSVFilePath    string
	BackupFilePath string
	DatabaseURL    string

	SessionSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	InboxProvider     string
	InboxLabel        string
	InboxFetchMax     int
	InboxPollInterval time.Duration
	ImportConcurrency int

	IMAPHost     string
	IMAPPort     int
	IMAPUser     string
	IMAPPassword string
	IMAPTLS      bool

	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	csvPath := GetEnv("CSV_FILE_PATH", "processed_emails.csv")

	cfg := &Config{
		Port:     GetEnv("PORT", "8080"),
		Env:      GetEnv("ENV", "development"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		AIProvider:      strings.ToLower(GetEnv("AI_PROVIDER", "gemini")),
		AIKey:           APIKeyFromEnv(),
		AIModel:         GetEnv("AI_MODEL", ""),
		AICallTimeout:   time.Duration(GetEnvInt("AI_CALL_TIMEOUT_SECONDS", 60)) * time.Second,
		FewShotK:        GetEnvInt("FEW_SHOT_K", 3),
		ExampleBankPath: GetEnv("EXAMPLE_BANK_PATH", ""),

		Storage:        strings.ToLower(GetEnv("STORAGE", "")),
		CSVFilePath:    csvPath,
		BackupFilePath: GetEnv("BACKUP_FILE_PATH", csvPath+".backup"),
		DatabaseURL:    GetEnv("DATABASE_URL", ""),

		SessionSecret: GetEnv("SESSION_SECRET", "175cd51c-b5e7-4218-81ed-e6832c8b53f1"),

		RedisAddr:     GetEnv("REDIS_ADDR", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("REDIS_DB", 0),

		InboxProvider:     strings.ToLower(GetEnv("INBOX_PROVIDER", "")),
		InboxLabel:        GetEnv("INBOX_LABEL", "INBOX"),
		InboxFetchMax:     GetEnvInt("INBOX_FETCH_MAX", 25),
		InboxPollInterval: time.Duration(GetEnvInt("INBOX_POLL_INTERVAL_SECONDS", 0)) * time.Second,
		ImportConcurrency: GetEnvInt("IMPORT_CONCURRENCY", 4),

		IMAPHost:     GetEnv("IMAP_HOST", ""),
		IMAPPort:     GetEnvInt("IMAP_PORT", 993),
		IMAPUser:     GetEnv("IMAP_USER", ""),
		IMAPPassword: GetEnv("IMAP_PASSWORD", ""),
		IMAPTLS:      GetEnvBool("IMAP_TLS", true),

		GmailClientID:     GetEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: GetEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: GetEnv("GMAIL_REFRESH_TOKEN", ""),
	}

	if cfg.Storage == "" {
		if cfg.DatabaseURL != "" {
			cfg.Storage = "postgres"
		} else {
			cfg.Storage = "csv"
		}
	}

	return cfg, nil
}

// APIKeyFromEnv returns GEMINI_API_KEY, falling back to AI_API_KEY.
func APIKeyFromEnv() string {
	if v := GetEnv("GEMINI_API_KEY", ""); v != "" {
		return v
	}
	return GetEnv("AI_API_KEY", "")
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}

// Validate checks value ranges. A missing API key is not an error here; the
// engine reports it when it fails to initialize.
func (c *Config) Validate() error {
	if c.FewShotK < 0 {
		return fmt.Errorf("FEW_SHOT_K must be >= 0, got %d", c.FewShotK)
	}
	if c.AICallTimeout <= 0 {
		return fmt.Errorf("AI_CALL_TIMEOUT_SECONDS must be positive")
	}
	if c.ImportConcurrency < 1 {
		return fmt.Errorf("IMPORT_CONCURRENCY must be >= 1, got %d", c.ImportConcurrency)
	}
	if c.InboxFetchMax < 1 {
		return fmt.Errorf("INBOX_FETCH_MAX must be >= 1, got %d", c.InboxFetchMax)
	}
	switch c.Storage {
	case "csv", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	switch c.InboxProvider {
	case "":
	case "imap":
		if c.IMAPHost == "" || c.IMAPUser == "" {
			return fmt.Errorf("IMAP_HOST and IMAP_USER are required when INBOX_PROVIDER=imap")
		}
	case "gmail":
		if c.GmailClientID == "" || c.GmailClientSecret == "" || c.GmailRefreshToken == "" {
			return fmt.Errorf("GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN are required when INBOX_PROVIDER=gmail")
		}
	default:
		return fmt.Errorf("unknown INBOX_PROVIDER %q", c.InboxProvider)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	return nil
}
