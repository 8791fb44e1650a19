package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/tatracker/pkg/config"
)

// DB wraps the pgxpool.Pool and provides additional functionality.
// Connection pools are created only here.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool
func New(cfg *config.Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthStatus holds database health information
type HealthStatus struct {
	Healthy     bool      `json:"healthy"`
	Timestamp   time.Time `json:"timestamp"`
	TotalConns  int32     `json:"total_conns"`
	IdleConns   int32     `json:"idle_conns"`
	Acquired    int32     `json:"acquired_conns"`
	PingLatency string    `json:"ping_latency"`
}

// HealthCheck returns detailed health information about the database
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Healthy:   false,
		Timestamp: time.Now(),
	}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		return status, fmt.Errorf("ping failed: %w", err)
	}
	status.PingLatency = time.Since(start).String()

	stat := db.Pool.Stat()
	status.TotalConns = stat.TotalConns()
	status.IdleConns = stat.IdleConns()
	status.Acquired = stat.AcquiredConns()
	status.Healthy = true

	return status, nil
}
