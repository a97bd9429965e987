package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"summarymaker/pkg/logger"

	_ "github.com/lib/pq"
)

const (
	pingAttempts = 5
	pingBackoff  = 2 * time.Second
)

// Connect opens a Postgres pool and waits until it answers a ping.
func Connect(ctx context.Context, databaseURL string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(maxOpenConns / 2)
	db.SetMaxOpenConns(maxOpenConns)

	// Retry a few times in case of temporary DNS/network blips
	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", pingBackoff, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(pingBackoff):
		}
	}
	db.Close()
	return nil, fmt.Errorf("ping db after %d attempts: %w", pingAttempts, err)
}
