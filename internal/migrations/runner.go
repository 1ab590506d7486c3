// Package migrations applies ordered .sql files to Postgres exactly once,
// tracking applied filenames in the migrations table.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"gestly/internal/repositories"

	"go.uber.org/zap"
)

// lockKey serializes runners across processes for the duration of one
// file's transaction.
const lockKey int64 = 471_020_233

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS migrations (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		executed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Result lists the files applied by one Run, in order.
type Result struct {
	Applied []string `json:"applied"`
}

// Status describes one migration file.
type Status struct {
	Name       string     `json:"name"`
	Applied    bool       `json:"applied"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
}

type Runner struct {
	db     repositories.DBTX
	fsys   fs.FS
	logger *zap.Logger
}

// NewRunner reads migration files from the root of fsys. Subdirectories
// and files without the .sql extension are ignored.
func NewRunner(db repositories.DBTX, fsys fs.FS, logger *zap.Logger) *Runner {
	return &Runner{db: db, fsys: fsys, logger: logger}
}

// Run applies every pending file in lexicographic order. It stops at the
// first failure; files applied before it stay applied and are returned in
// the partial Result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{Applied: []string{}}

	pending, err := r.Pending(ctx)
	if err != nil {
		return result, err
	}
	if len(pending) == 0 {
		r.logger.Info("no pending migrations")
		return result, nil
	}

	for _, name := range pending {
		applied, err := r.apply(ctx, name)
		if err != nil {
			r.logger.Error("migration failed", zap.String("file", name), zap.Error(err))
			return result, fmt.Errorf("migration %s: %w", name, err)
		}
		if applied {
			r.logger.Info("migration applied", zap.String("file", name))
			result.Applied = append(result.Applied, name)
		}
	}
	return result, nil
}

// Pending returns the files not yet recorded, in execution order.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	files, err := r.files()
	if err != nil {
		return nil, err
	}
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	executed, err := r.executed(ctx)
	if err != nil {
		return nil, err
	}

	pending := []string{}
	for _, name := range files {
		if _, ok := executed[name]; !ok {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// Status reports every file on disk along with whether it was applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	files, err := r.files()
	if err != nil {
		return nil, err
	}
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	executed, err := r.executed(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(files))
	for _, name := range files {
		st := Status{Name: name}
		if at, ok := executed[name]; ok {
			at := at
			st.Applied = true
			st.ExecutedAt = &at
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (r *Runner) files() ([]string, error) {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	return nil
}

func (r *Runner) executed(ctx context.Context) (map[string]time.Time, error) {
	rows, err := r.db.Query(ctx, `SELECT name, executed_at FROM migrations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	executed := map[string]time.Time{}
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, err
		}
		executed[name] = at
	}
	return executed, rows.Err()
}

// apply runs one file and records it in the same transaction. It returns
// false when another runner recorded the file first.
func (r *Runner) apply(ctx context.Context, name string) (bool, error) {
	content, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	rollback := func(cause error) (bool, error) {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn("rollback failed", zap.String("file", name), zap.Error(rbErr))
		}
		return false, cause
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
		return rollback(fmt.Errorf("acquire lock: %w", err))
	}

	var recorded bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM migrations WHERE name = $1)`, name).Scan(&recorded); err != nil {
		return rollback(fmt.Errorf("check applied: %w", err))
	}
	if recorded {
		r.logger.Info("migration already applied by another runner", zap.String("file", name))
		return rollback(nil)
	}

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return rollback(err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO migrations (name) VALUES ($1)`, name); err != nil {
		return rollback(fmt.Errorf("record migration: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
