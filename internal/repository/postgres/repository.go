package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"mailtriage/internal/metrics"
	"mailtriage/internal/model"
	"mailtriage/internal/repository"
)

const (
	primaryTable     = "processed_emails"
	backupTable      = "processed_emails_backup"
	// one row once a backup has been written, even an empty one
	backupStateTable = "processed_emails_backup_state"
)

const columnList = `id, date, name, email, subject, category, priority, status, remarks, draft_reply, original_email`

// PostgresEmailTableRepository keeps the table in processed_emails with a
// position column preserving table order. Every save also rewrites
// processed_emails_backup.
type PostgresEmailTableRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresEmailTableRepository(db *sql.DB) *PostgresEmailTableRepository {
	return &PostgresEmailTableRepository{db: db, now: time.Now}
}

// Open connects to url, checks the connection and creates the tables.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := InitializeDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (r *PostgresEmailTableRepository) Load(ctx context.Context) ([]*model.ProcessedEmail, error) {
	rows, err := r.readTable(ctx, primaryTable)
	if err != nil {
		return nil, err
	}
	now := r.now()
	for _, row := range rows {
		row.Date = repository.NormalizeDate(row.Date, now)
	}
	if err := r.inTx(ctx, func(tx *sql.Tx) error {
		return r.writeBackup(ctx, tx, rows)
	}); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresEmailTableRepository) Save(ctx context.Context, rows []*model.ProcessedEmail) error {
	start := time.Now()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := writeTable(ctx, tx, primaryTable, rows); err != nil {
			return err
		}
		return r.writeBackup(ctx, tx, rows)
	})
	metrics.RecordTableSave("postgres", err == nil, time.Since(start))
	return err
}

func (r *PostgresEmailTableRepository) Restore(ctx context.Context) ([]*model.ProcessedEmail, error) {
	ok, err := r.backupExists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNoBackup
	}
	rows, err := r.readTable(ctx, backupTable)
	if err != nil {
		return nil, err
	}
	if err := r.Save(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// HasBackup reports whether a backup has been written.
func (r *PostgresEmailTableRepository) HasBackup() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := r.backupExists(ctx)
	return err == nil && ok
}

func (r *PostgresEmailTableRepository) backupExists(ctx context.Context) (bool, error) {
	var ok bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s)`, backupStateTable)
	if err := r.db.QueryRowContext(ctx, query).Scan(&ok); err != nil {
		return false, fmt.Errorf("%w: query %s: %w", repository.ErrPersistence, backupStateTable, err)
	}
	return ok, nil
}

func (r *PostgresEmailTableRepository) writeBackup(ctx context.Context, tx *sql.Tx, rows []*model.ProcessedEmail) error {
	if err := writeTable(ctx, tx, backupTable, rows); err != nil {
		return err
	}
	upsert := fmt.Sprintf(`INSERT INTO %s (id, saved_at) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at`, backupStateTable)
	if _, err := tx.ExecContext(ctx, upsert, r.now().Format(model.DateLayout)); err != nil {
		return fmt.Errorf("%w: mark backup: %w", repository.ErrPersistence, err)
	}
	return nil
}

func (r *PostgresEmailTableRepository) readTable(ctx context.Context, table string) ([]*model.ProcessedEmail, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY position`, columnList, table)
	rs, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", repository.ErrPersistence, table, err)
	}
	defer rs.Close()

	out := []*model.ProcessedEmail{}
	for rs.Next() {
		e := &model.ProcessedEmail{}
		var priority, status string
		if err := rs.Scan(
			&e.ID, &e.Date, &e.Name, &e.Email, &e.Subject, &e.Category,
			&priority, &status, &e.Remarks, &e.DraftReply, &e.OriginalEmail); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", repository.ErrPersistence, table, err)
		}
		e.Priority = model.Priority(priority)
		e.Status = model.Status(status)
		out = append(out, e)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", repository.ErrPersistence, table, err)
	}
	return out, nil
}

func (r *PostgresEmailTableRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", repository.ErrPersistence, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", repository.ErrPersistence, err)
	}
	return nil
}

func writeTable(ctx context.Context, tx *sql.Tx, table string, rows []*model.ProcessedEmail) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("%w: clear %s: %w", repository.ErrPersistence, table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (position, %s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		table, columnList))
	if err != nil {
		return fmt.Errorf("%w: prepare %s: %w", repository.ErrPersistence, table, err)
	}
	defer stmt.Close()

	for i, e := range rows {
		if _, err := stmt.ExecContext(ctx, i,
			e.ID, e.Date, e.Name, e.Email, e.Subject, e.Category,
			string(e.Priority), string(e.Status), e.Remarks, e.DraftReply, e.OriginalEmail); err != nil {
			return fmt.Errorf("%w: insert into %s: %w", repository.ErrPersistence, table, err)
		}
	}
	return nil
}

// InitializeDatabase creates the table, its backup twin and the backup marker.
func InitializeDatabase(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{primaryTable, backupTable} {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			position INTEGER NOT NULL,
			id INTEGER NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			remarks TEXT NOT NULL DEFAULT '',
			draft_reply TEXT NOT NULL DEFAULT '',
			original_email TEXT NOT NULL DEFAULT ''
		)`, table)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY,
		saved_at TEXT NOT NULL
	)`, backupStateTable)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", backupStateTable, err)
	}
	return nil
}
