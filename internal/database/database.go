package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tournament-admin/internal/logging"
	"tournament-admin/internal/metrics"
)

// Default timeout for individual database operations.
const defaultTimeout = 5 * time.Second

// requiredColumns is the canonical tournament_images schema contract.
// Verified once at startup; the gateway never introspects per query.
var requiredColumns = []string{
	"id", "category", "image_url", "thumbnail_url", "title", "description",
	"tags", "active", "approved", "file_size", "image_width", "image_height",
	"mime_type", "total_views", "total_selections", "win_rate",
	"approved_by", "approved_at", "upload_date", "updated_at",
}

// Database manages all catalog storage operations.
type Database struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, verifies connectivity, and checks the
// schema contract. Construct once in main and inject.
func New(ctx context.Context, dsn string) (*Database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &Database{pool: pool}

	if err := d.verifySchemaContract(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logging.Info("Database connection established, schema contract verified")
	return d, nil
}

// Close releases the connection pool.
func (d *Database) Close() {
	d.pool.Close()
}

// OpenConnections reports the pool's current total connections, for the
// metrics gauge.
func (d *Database) OpenConnections() int {
	return int(d.pool.Stat().TotalConns())
}

// UpdatePoolMetrics refreshes the connection pool gauge.
func (d *Database) UpdatePoolMetrics() {
	metrics.DBConnectionsOpen.Set(float64(d.pool.Stat().TotalConns()))
}

// Ping checks database connectivity, for readiness probes.
func (d *Database) Ping(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.pool.Ping(queryCtx)
}

// verifySchemaContract fails fast when the live tournament_images table
// is missing required columns. Schema drift is a migration problem to
// fix, not a condition to degrade around at query time.
func (d *Database) verifySchemaContract(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.pool.Query(queryCtx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = 'tournament_images'`)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to read schema row: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	if len(present) == 0 {
		return fmt.Errorf("table tournament_images does not exist: run migrations first (cmd/migrate)")
	}

	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("tournament_images is missing required columns: %s (migration history incomplete)",
			strings.Join(missing, ", "))
	}

	return nil
}
