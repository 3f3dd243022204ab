// Package csv stores the processed email table as a CSV file with a
// backup copy next to it.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"mailtriage/internal/logger"
	"mailtriage/internal/metrics"
	"mailtriage/internal/model"
	"mailtriage/internal/repository"
)

type Repository struct {
	path       string
	backupPath string
	logger     *logger.Logger
	now        func() time.Time
}

// New returns a repository for path. An empty backupPath means path+".backup".
func New(path, backupPath string, log *logger.Logger) *Repository {
	if backupPath == "" {
		backupPath = path + ".backup"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Repository{path: path, backupPath: backupPath, logger: log, now: time.Now}
}

func (r *Repository) Path() string       { return r.path }
func (r *Repository) BackupPath() string { return r.backupPath }

// HasBackup reports whether a backup file exists.
func (r *Repository) HasBackup() bool {
	_, err := os.Stat(r.backupPath)
	return err == nil
}

// Load reads the table, migrating legacy files and normalizing dates, then
// refreshes the backup. A missing file yields an empty table, which is saved.
func (r *Repository) Load(ctx context.Context) ([]*model.ProcessedEmail, error) {
	rows, migrated, err := r.read(r.path)
	if errors.Is(err, os.ErrNotExist) {
		empty := []*model.ProcessedEmail{}
		if err := r.Save(ctx, empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, err
	}
	if migrated {
		r.logger.Infof("migrated old CSV format in %s to current columns", r.path)
	}

	if err := r.write(r.backupPath, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Save writes the whole table to the primary file and the backup.
func (r *Repository) Save(ctx context.Context, rows []*model.ProcessedEmail) error {
	start := time.Now()
	err := r.write(r.path, rows)
	if err == nil {
		err = r.write(r.backupPath, rows)
	}
	metrics.RecordTableSave("csv", err == nil, time.Since(start))
	return err
}

// Restore loads the backup file and saves it as the primary table.
func (r *Repository) Restore(ctx context.Context) ([]*model.ProcessedEmail, error) {
	rows, _, err := r.read(r.backupPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, repository.ErrNoBackup
	}
	if err != nil {
		return nil, err
	}
	if err := r.Save(ctx, rows); err != nil {
		return nil, err
	}
	r.logger.Infof("restored %d rows from %s", len(rows), r.backupPath)
	return rows, nil
}

func (r *Repository) read(path string) ([]*model.ProcessedEmail, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: open %s: %w", repository.ErrPersistence, path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []*model.ProcessedEmail{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: parse %s: %w", repository.ErrPersistence, path, err)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("%w: parse %s: %w", repository.ErrPersistence, path, err)
	}

	rows, migrated := repository.FromRecords(header, records, r.now())
	return rows, migrated, nil
}

// write replaces path atomically through a temp file in the same directory.
func (r *Repository) write(path string, rows []*model.ProcessedEmail) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir %s: %w", repository.ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", repository.ErrPersistence, path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(repository.ToRecords(rows)); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", repository.ErrPersistence, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", repository.ErrPersistence, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", repository.ErrPersistence, path, err)
	}
	return nil
}
