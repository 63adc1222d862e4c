package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tournament-admin/internal/migrate"
	"tournament-admin/internal/startup"
)

const defaultTimeout = 60 * time.Second

// dbinit provisions the application role and database against the
// maintenance database, then applies the schema migrations. Safe to
// re-run; existing role and database are left alone.
func main() {
	config, err := startup.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	ctx, timeoutCancel := context.WithTimeout(ctx, defaultTimeout)
	defer timeoutCancel()

	if err := provision(ctx, config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, config.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", config.Database.Name, err)
		os.Exit(1)
	}
	defer pool.Close()

	applied, err := migrate.NewRunner(pool).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database %s initialized (%d migration(s) applied).\n", config.Database.Name, applied)
}

func provision(ctx context.Context, config *startup.Config) error {
	conn, err := pgx.Connect(ctx, config.Database.MaintenanceDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	var roleExists bool
	err = conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)`,
		config.Database.User).Scan(&roleExists)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !roleExists {
		// Identifiers cannot be bound as parameters.
		sql := fmt.Sprintf("CREATE ROLE %s LOGIN PASSWORD '%s'",
			pgx.Identifier{config.Database.User}.Sanitize(),
			escapeLiteral(config.Database.Password))
		if _, err := conn.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to create role %s: %w", config.Database.User, err)
		}
		fmt.Printf("Created role %s\n", config.Database.User)
	}

	var dbExists bool
	err = conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`,
		config.Database.Name).Scan(&dbExists)
	if err != nil {
		return fmt.Errorf("failed to check database: %w", err)
	}
	if !dbExists {
		sql := fmt.Sprintf("CREATE DATABASE %s OWNER %s",
			pgx.Identifier{config.Database.Name}.Sanitize(),
			pgx.Identifier{config.Database.User}.Sanitize())
		if _, err := conn.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to create database %s: %w", config.Database.Name, err)
		}
		fmt.Printf("Created database %s\n", config.Database.Name)
	}

	return nil
}

// escapeLiteral doubles single quotes for safe embedding in a string
// literal.
func escapeLiteral(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(out)
}
