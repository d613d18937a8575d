// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nordveil/extragold/internal/config"
	"github.com/nordveil/extragold/internal/models"
)

// ErrMissingInput indicates that no fact_events file was found in the input
// directory. Missing inputs abort the run.
var ErrMissingInput = errors.New("no fact_events.parquet or fact_events.csv found in input directory")

// DetectFormat inspects dir and returns the table file format to use,
// preferring Parquet over CSV when both exist.
func DetectFormat(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, "fact_events.parquet")); err == nil {
		return config.FormatParquet, nil
	}
	if _, err := os.Stat(filepath.Join(dir, "fact_events.csv")); err == nil {
		return config.FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingInput, dir)
}

// tablePath returns the file path for a named table in dir.
func tablePath(dir, name, format string) string {
	return filepath.Join(dir, name+"."+format)
}

// readerExpr returns the DuckDB table function reading path in the given
// format. The path is embedded as an escaped SQL literal because DuckDB
// does not accept bind parameters inside table functions.
func readerExpr(path, format string) string {
	if format == config.FormatParquet {
		return fmt.Sprintf("read_parquet('%s')", sqlEscape(path))
	}
	return fmt.Sprintf("read_csv_auto('%s', header=true, all_varchar=false)", sqlEscape(path))
}

// sqlEscape doubles single quotes for safe embedding in a SQL string literal.
func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// LoadMarkets reads dim_market from dir.
func (s *Store) LoadMarkets(ctx context.Context, dir, format string) ([]models.Market, error) {
	path := tablePath(dir, "dim_market", format)
	query := fmt.Sprintf(`
		SELECT COALESCE(market, ''), COALESCE(region, '')
		FROM %s
		ORDER BY market`, readerExpr(path, format))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read dim_market %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []models.Market
	for rows.Next() {
		var m models.Market
		if err := rows.Scan(&m.Code, &m.Region); err != nil {
			return nil, fmt.Errorf("scan dim_market row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dim_market rows: %w", err)
	}
	return out, nil
}

// LoadExtras reads dim_extra from dir.
func (s *Store) LoadExtras(ctx context.Context, dir, format string) ([]models.Extra, error) {
	path := tablePath(dir, "dim_extra", format)
	query := fmt.Sprintf(`
		SELECT
			COALESCE(extra_id, ''),
			COALESCE(extra_name, ''),
			COALESCE(category, ''),
			COALESCE(CAST(price_monthly AS DOUBLE), 0)
		FROM %s
		ORDER BY extra_id`, readerExpr(path, format))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read dim_extra %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []models.Extra
	for rows.Next() {
		var e models.Extra
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.PriceMonthly); err != nil {
			return nil, fmt.Errorf("scan dim_extra row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dim_extra rows: %w", err)
	}
	return out, nil
}

// LoadCustomers reads dim_customer from dir.
func (s *Store) LoadCustomers(ctx context.Context, dir, format string) ([]models.Customer, error) {
	path := tablePath(dir, "dim_customer", format)
	query := fmt.Sprintf(`
		SELECT
			COALESCE(customer_id, ''),
			COALESCE(market, ''),
			COALESCE(segment, ''),
			CAST(signup_date AS DATE)
		FROM %s
		ORDER BY customer_id`, readerExpr(path, format))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read dim_customer %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		var signup sql.NullTime
		if err := rows.Scan(&c.ID, &c.Market, &c.Segment, &signup); err != nil {
			return nil, fmt.Errorf("scan dim_customer row: %w", err)
		}
		if signup.Valid {
			c.SignupDate = models.DateOf(signup.Time)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dim_customer rows: %w", err)
	}
	return out, nil
}

// LoadEvents reads fact_events from dir in file order. Dirty rows (null
// keys, unknown types) are loaded as-is; validation is the quality
// checker's job, not ingest's.
func (s *Store) LoadEvents(ctx context.Context, dir, format string) ([]models.Event, error) {
	path := tablePath(dir, "fact_events", format)
	query := fmt.Sprintf(`
		SELECT
			CAST(event_ts AS TIMESTAMP),
			CAST(event_date AS DATE),
			COALESCE(customer_id, ''),
			COALESCE(market, ''),
			COALESCE(extra_id, ''),
			COALESCE(event_type, ''),
			COALESCE(TRY_CAST(quantity AS INTEGER), 1)
		FROM %s`, readerExpr(path, format))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read fact_events %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []models.Event
	for rows.Next() {
		var (
			ev        models.Event
			ts, date  sql.NullTime
			eventType string
		)
		if err := rows.Scan(&ts, &date, &ev.CustomerID, &ev.Market, &ev.ExtraID, &eventType, &ev.Quantity); err != nil {
			return nil, fmt.Errorf("scan fact_events row: %w", err)
		}
		if ts.Valid {
			ev.Timestamp = ts.Time.UTC()
		}
		if date.Valid {
			ev.Date = models.DateOf(date.Time)
		} else if ts.Valid {
			ev.Date = models.DateOf(ts.Time)
		}
		ev.Type = models.EventType(eventType)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fact_events rows: %w", err)
	}
	return out, nil
}
