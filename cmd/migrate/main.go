package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tournament-admin/internal/migrate"
	"tournament-admin/internal/startup"
)

const defaultTimeout = 60 * time.Second

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

	pool, err := pgxpool.New(ctx, config.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Database unreachable: %v\n", err)
		fmt.Fprintf(os.Stderr, "Check DB_HOST, DB_PORT, DB_NAME, DB_USER and DB_PASSWORD (current host: %s)\n",
			config.Database.Host)
		os.Exit(1)
	}

	applied, err := migrate.NewRunner(pool).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Migration failed: %v\n", err)
		os.Exit(1)
	}

	if applied == 0 {
		fmt.Println("Schema is up to date.")
	} else {
		fmt.Printf("Applied %d migration(s).\n", applied)
	}
}
