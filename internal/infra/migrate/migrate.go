// Package migrate applies the embedded schema migrations through database/sql.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	// Registers the "postgres" driver for database/sql.
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var embedded embed.FS

const createVersionTable = `create table if not exists schema_migrations (
    version text primary key,
    applied_at timestamptz not null default now()
)`

// Migration is a single versioned SQL file.
type Migration struct {
	Version string
	SQL     string
}

// Runner applies migrations in lexical order, each inside its own transaction.
type Runner struct {
	db         *sql.DB
	logger     zerolog.Logger
	migrations []Migration
}

// Open connects to databaseURL with the lib/pq driver.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migrate: open database: %w", err)
	}
	return db, nil
}

// NewRunner builds a runner over the embedded migrations.
func NewRunner(db *sql.DB, logger zerolog.Logger) (*Runner, error) {
	migrations, err := Load(embedded, "migrations")
	if err != nil {
		return nil, err
	}
	return &Runner{db: db, logger: logger, migrations: migrations}, nil
}

// NewRunnerWith builds a runner over an explicit migration list.
func NewRunnerWith(db *sql.DB, logger zerolog.Logger, migrations []Migration) *Runner {
	return &Runner{db: db, logger: logger, migrations: migrations}
}

// Load reads every *.sql file of dir in fsys, sorted by name. The version is
// the file name without extension.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migrate: read dir: %w", err)
	}
	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("migrate: read %s: %w", entry.Name(), err)
		}
		out = append(out, Migration{
			Version: strings.TrimSuffix(entry.Name(), ".sql"),
			SQL:     string(raw),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Applied returns the set of versions already recorded.
func (r *Runner) Applied(ctx context.Context) (map[string]bool, error) {
	if _, err := r.db.ExecContext(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("migrate: ensure version table: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, `select version from schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrate: list applied: %w", err)
	}
	defer rows.Close()
	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Up applies every pending migration and returns the versions applied.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	var done []string
	for _, m := range r.migrations {
		if applied[m.Version] {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return done, err
		}
		r.logger.Info().Str("version", m.Version).Msg("migration applied")
		done = append(done, m.Version)
	}
	return done, nil
}

// Pending lists versions that Up would apply.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, m := range r.migrations {
		if !applied[m.Version] {
			pending = append(pending, m.Version)
		}
	}
	return pending, nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", m.Version, err)
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrate: apply %s: %w", m.Version, err)
	}
	if _, err := tx.ExecContext(ctx, `insert into schema_migrations (version) values ($1)`, m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrate: record %s: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", m.Version, err)
	}
	return nil
}
