package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"htech-admin/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ConnectAndCreateDB connects to the maintenance database, creates the target
// database when it is missing and returns a pool on the target.
func ConnectAndCreateDB(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	maintenance := cfg
	maintenance.DBname = "postgres"

	defaultDB, err := sql.Open("postgres", maintenance.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := defaultDB.QueryRowContext(ctx, checkQuery, cfg.DBname).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		createQuery := fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)
		if _, err := defaultDB.ExecContext(ctx, createQuery); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		log.Printf("database %q created", cfg.DBname)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// ConnectWithRetry keeps calling ConnectAndCreateDB until it succeeds, the
// attempts run out or ctx is done.
func ConnectWithRetry(ctx context.Context, cfg config.PostgresConfig, attempts int, wait time.Duration) (*sqlx.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := ConnectAndCreateDB(ctx, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Printf("database connection attempt %d/%d failed: %v, next retry in %v", attempt, attempts, err, wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
