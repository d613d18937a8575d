// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/nordveil/extragold/internal/config"
	"github.com/nordveil/extragold/internal/logging"
	"github.com/nordveil/extragold/internal/models"
)

// WriteDailyKPI stages rows into a gold_daily_kpi table and exports it to
// dir in the given format.
func (s *Store) WriteDailyKPI(ctx context.Context, rows []models.DailyKPIRow, dir, format string) error {
	const ddl = `
		CREATE OR REPLACE TABLE gold_daily_kpi (
			date DATE,
			market VARCHAR,
			region VARCHAR,
			extra_id VARCHAR,
			category VARCHAR,
			trials INTEGER,
			purchases INTEGER,
			renewals INTEGER,
			cancels INTEGER,
			active_subscriptions INTEGER,
			active_users INTEGER,
			sessions INTEGER,
			mrr DOUBLE
		)`
	const insert = `INSERT INTO gold_daily_kpi VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := s.stageTable(ctx, ddl, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx,
			r.Date, r.Market, r.Region, r.ExtraID, r.Category,
			r.Trials, r.Purchases, r.Renewals, r.Cancels,
			r.ActiveSubscriptions, r.ActiveUsers, r.Sessions, r.MRR)
		return err
	})
	if err != nil {
		return fmt.Errorf("stage gold_daily_kpi: %w", err)
	}

	return s.copyTableTo(ctx, "gold_daily_kpi", "market, extra_id, date", dir, format)
}

// WriteCohortRetention stages rows into a gold_cohort_retention table and
// exports it to dir in the given format.
func (s *Store) WriteCohortRetention(ctx context.Context, rows []models.CohortRetentionRow, dir, format string) error {
	const ddl = `
		CREATE OR REPLACE TABLE gold_cohort_retention (
			cohort_month DATE,
			market VARCHAR,
			extra_id VARCHAR,
			month_n INTEGER,
			retained_subs INTEGER,
			cohort_size INTEGER,
			retention_rate DOUBLE
		)`
	const insert = `INSERT INTO gold_cohort_retention VALUES (?, ?, ?, ?, ?, ?, ?)`

	err := s.stageTable(ctx, ddl, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx,
			r.CohortMonth, r.Market, r.ExtraID, r.MonthN,
			r.RetainedSubs, r.CohortSize, r.RetentionRate)
		return err
	})
	if err != nil {
		return fmt.Errorf("stage gold_cohort_retention: %w", err)
	}

	return s.copyTableTo(ctx, "gold_cohort_retention", "cohort_month, market, extra_id, month_n", dir, format)
}

// WriteDQResults stages rows into a gold_dq_results table and exports it to
// dir in the given format.
func (s *Store) WriteDQResults(ctx context.Context, rows []models.DQResultRow, dir, format string) error {
	const ddl = `
		CREATE OR REPLACE TABLE gold_dq_results (
			date DATE,
			check_name VARCHAR,
			table_name VARCHAR,
			severity VARCHAR,
			failed_rows BIGINT,
			sample_keys VARCHAR
		)`
	const insert = `INSERT INTO gold_dq_results VALUES (?, ?, ?, ?, ?, ?)`

	err := s.stageTable(ctx, ddl, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx,
			r.Date, r.CheckName, r.TableName, string(r.Severity),
			r.FailedRows, r.SampleKeys)
		return err
	})
	if err != nil {
		return fmt.Errorf("stage gold_dq_results: %w", err)
	}

	return s.copyTableTo(ctx, "gold_dq_results", "check_name", dir, format)
}

// stageTable (re)creates a staging table and fills it row by row inside a
// single transaction.
func (s *Store) stageTable(ctx context.Context, ddl, insert string, n int, bind func(*sql.Stmt, int) error) error {
	if _, err := s.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staging transaction: %w", err)
	}
	defer func() {
		// Rollback is a no-op after a successful commit.
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			logging.Warn().Err(rbErr).Msg("Failed to roll back staging transaction")
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare staging insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := 0; i < n; i++ {
		if err := bind(stmt, i); err != nil {
			return fmt.Errorf("insert staging row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staging transaction: %w", err)
	}
	return nil
}

// copyTableTo exports a staged table to <dir>/<table>.<format>. The COPY
// goes to a temporary path in the same directory which is then renamed over
// the final file, so a failed run never leaves a truncated output behind.
func (s *Store) copyTableTo(ctx context.Context, table, orderBy, dir, format string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	finalPath := tablePath(dir, table, format)
	tmpPath := fmt.Sprintf("%s.tmp-%s", finalPath, uuid.NewString()[:8])

	var options string
	if format == config.FormatParquet {
		options = "FORMAT PARQUET, COMPRESSION 'ZSTD'"
	} else {
		options = "FORMAT CSV, HEADER"
	}

	// Explicit ORDER BY keeps re-runs byte-identical.
	query := fmt.Sprintf("COPY (SELECT * FROM %s ORDER BY %s) TO ? (%s)", table, orderBy, options)
	if _, err := s.conn.ExecContext(ctx, query, tmpPath); err != nil {
		return fmt.Errorf("export %s: %w", table, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Warn().Err(rmErr).Str("path", tmpPath).Msg("Failed to remove temporary export file")
		}
		return fmt.Errorf("replace %s: %w", finalPath, err)
	}

	logging.Info().Str("table", table).Str("path", finalPath).Msg("Gold table written")
	return nil
}
