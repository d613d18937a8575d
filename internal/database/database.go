// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Package database wraps an embedded DuckDB instance used as the table
// engine for the pipeline: it ingests the raw dimension and fact files
// (Parquet or CSV) and exports the recomputed gold tables.
//
// The aggregations themselves run in Go (internal/gold, internal/quality);
// DuckDB is deliberately confined to columnar file I/O, where it handles
// format detection, type coercion and compression.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/nordveil/extragold/internal/config"
	"github.com/nordveil/extragold/internal/logging"
)

// Store wraps the DuckDB connection used for table ingest and export.
type Store struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the DuckDB database described by cfg and configures the
// connection pool.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{conn: conn, cfg: cfg}
	s.configureConnectionPool()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return s, nil
}

// configureConnectionPool sets connection pool parameters. A batch run is
// short-lived, so the pool stays small.
func (s *Store) configureConnectionPool() {
	s.conn.SetMaxOpenConns(runtime.NumCPU())
	s.conn.SetMaxIdleConns(2)
	s.conn.SetConnMaxLifetime(time.Hour)
}

// Conn returns the underlying SQL database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Close releases the DuckDB connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// closeQuietly closes c and logs failures instead of propagating them.
func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database resource")
	}
}
