package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tournament-admin/internal/logging"
)

//go:embed sql/*.sql
var migrationFS embed.FS

// fileNamePattern matches NNN_description.sql.
var fileNamePattern = regexp.MustCompile(`^(\d{3})_([a-z0-9_]+)\.sql$`)

// Migration is one versioned schema change.
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// Load parses the embedded migration files, sorted by version.
func Load() ([]Migration, error) {
	return loadFrom(migrationFS, "sql")
}

func loadFrom(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	seen := make(map[string]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			return nil, fmt.Errorf("migration file %s does not match NNN_name.sql", entry.Name())
		}
		version, name := m[1], m[2]
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %s (%s and %s)", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		body, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(string(body)) == "" {
			return nil, fmt.Errorf("migration %s is empty", entry.Name())
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// Runner applies migrations against one database pool.
type Runner struct {
	pool *pgxpool.Pool
}

// NewRunner wraps an existing pool.
func NewRunner(pool *pgxpool.Pool) *Runner {
	return &Runner{pool: pool}
}

// Run applies every pending embedded migration and returns how many
// were executed.
func (r *Runner) Run(ctx context.Context) (int, error) {
	migrations, err := Load()
	if err != nil {
		return 0, err
	}
	return r.apply(ctx, migrations)
}

func (r *Runner) apply(ctx context.Context, migrations []Migration) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	executed := 0
	for _, m := range migrations {
		if applied[m.Version] {
			logging.Debug("Migration %s_%s already applied, skipping", m.Version, m.Name)
			continue
		}
		if err := r.applyOne(ctx, m); err != nil {
			return executed, err
		}
		executed++
	}

	if executed == 0 {
		logging.Info("Schema is up to date (%d migrations on record)", len(migrations))
	}
	return executed, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			version VARCHAR(20) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT NOW(),
			execution_time_ms INTEGER,
			status VARCHAR(20) DEFAULT 'completed'
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func (r *Runner) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT version FROM schema_migrations WHERE status = 'completed'`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read migration versions: %w", err)
	}
	return applied, nil
}

// applyOne runs the migration SQL and its bookkeeping row in a single
// transaction so a failed migration leaves no record behind.
func (r *Runner) applyOne(ctx context.Context, m Migration) error {
	logging.Info("Applying migration %s_%s", m.Version, m.Name)
	start := time.Now()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.Version, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration %s_%s failed: %w", m.Version, m.Name, err)
	}

	elapsed := time.Since(start).Milliseconds()
	_, err = tx.Exec(ctx, `
		INSERT INTO schema_migrations (version, name, execution_time_ms, status)
		VALUES ($1, $2, $3, 'completed')`,
		m.Version, m.Name, elapsed)
	if err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
	}

	logging.Info("Migration %s_%s completed in %dms", m.Version, m.Name, elapsed)
	return nil
}
