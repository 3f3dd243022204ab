package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mailtriage/internal/engine"
	"mailtriage/internal/inbox"
	"mailtriage/internal/repository"
	"mailtriage/internal/repository/csv"
	"mailtriage/internal/repository/memory"
	"mailtriage/internal/repository/postgres"
	"mailtriage/internal/service"
	"mailtriage/internal/sse"
)

// dedupTTL bounds how long imported message ids are remembered in redis.
const dedupTTL = 30 * 24 * time.Hour

// app holds the wired components shared by the subcommands.
type app struct {
	repo         repository.EmailTableRepository
	engine       *engine.Engine
	sseManager   *sse.SSEManager
	emailService service.EmailService

	db  *sql.DB
	rdb *redis.Client
}

func newRepository(ctx context.Context, a *app) (repository.EmailTableRepository, error) {
	switch cfg.Storage {
	case "memory":
		appLogger.Info("using in-memory email table")
		return memory.NewInMemoryEmailTableRepository(), nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.db = db
		appLogger.Info("using PostgreSQL email table")
		return postgres.NewPostgresEmailTableRepository(db), nil
	default:
		appLogger.Infof("using CSV email table at %s", cfg.CSVFilePath)
		return csv.New(cfg.CSVFilePath, cfg.BackupFilePath, appLogger), nil
	}
}

// buildApp wires storage, the engine and the service. The engine is only
// initialized when initEngine is set; commands that never classify skip the
// API key check.
func buildApp(ctx context.Context, initEngine bool) (*app, error) {
	a := &app{sseManager: sse.NewSSEManager(appLogger)}

	repo, err := newRepository(ctx, a)
	if err != nil {
		return nil, err
	}
	a.repo = repo

	a.engine = engine.New(engine.Options{
		Factory:     engine.AIClientFactory(cfg.AIProvider, cfg.AIModel, appLogger),
		BankPath:    cfg.ExampleBankPath,
		K:           cfg.FewShotK,
		CallTimeout: cfg.AICallTimeout,
		Logger:      appLogger,
	})
	if initEngine && !a.engine.Initialize(cfg.AIKey) {
		appLogger.Warn("AI engine not initialized; email processing is disabled")
	}

	a.emailService = service.NewEmailService(a.repo, a.engine, a.sseManager, appLogger)
	return a, nil
}

// newImporter returns nil when no mailbox is configured.
func (a *app) newImporter(ctx context.Context) (*inbox.Importer, error) {
	source, err := inbox.NewSource(ctx, cfg, appLogger)
	if errors.Is(err, inbox.ErrNoProvider) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dedup inbox.Deduper = inbox.NewMemoryDeduper()
	if cfg.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			appLogger.Warnf("redis at %s unreachable, dedup will fail open: %v", cfg.RedisAddr, err)
		}
		dedup = inbox.NewRedisDeduper(a.rdb, dedupTTL, appLogger)
	}

	return inbox.NewImporter(source, a.emailService, dedup, cfg.ImportConcurrency, appLogger), nil
}

func (a *app) Close() {
	a.sseManager.Close()
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
