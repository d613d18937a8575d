// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Raw dataset writers used by cmd/datagen to materialize the synthetic
// dimension and fact tables consumed later by cmd/goldbuild.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nordveil/extragold/internal/models"
)

// WriteMarkets writes dim_market to dir.
func (s *Store) WriteMarkets(ctx context.Context, rows []models.Market, dir, format string) error {
	const ddl = `
		CREATE OR REPLACE TABLE dim_market (
			market VARCHAR,
			region VARCHAR
		)`
	const insert = `INSERT INTO dim_market VALUES (?, ?)`

	err := s.stageTable(ctx, ddl, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx, r.Code, r.Region)
		return err
	})
	if err != nil {
		return fmt.Errorf("stage dim_market: %w", err)
	}
	return s.copyTableTo(ctx, "dim_market", "market", dir, format)
}

// WriteExtras writes dim_extra to dir.
func (s *Store) WriteExtras(ctx context.Context, rows []models.Extra, dir, format string) error {
	const ddl = `
		CREATE OR REPLACE TABLE dim_extra (
			extra_id VARCHAR,
			extra_name VARCHAR,
			category VARCHAR,
			price_monthly DOUBLE
		)`
	const insert = `INSERT INTO dim_extra VALUES (?, ?, ?, ?)`

	err := s.stageTable(ctx, ddl, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Category, r.PriceMonthly)
		return err
	})
	if err != nil {
		return fmt.Errorf("stage dim_extra: %w", err)
	}
	return s.copyTableTo(ctx, "dim_extra", "extra_id", dir, format)
}

// WriteCustomers writes dim_customer to dir.
func (s *Store) WriteCustomers(ctx context.Context, rows []models.Customer, dir, format string) error {
	const ddl = `
		CREATE OR REPLACE TABLE dim_customer (
			customer_id VARCHAR,
			market VARCHAR,
			segment VARCHAR,
			signup_date DATE
		)`
	const insert = `INSERT INTO dim_customer VALUES (?, ?, ?, ?)`

	err := s.stageTable(ctx, ddl, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx, r.ID, r.Market, r.Segment, r.SignupDate)
		return err
	})
	if err != nil {
		return fmt.Errorf("stage dim_customer: %w", err)
	}
	return s.copyTableTo(ctx, "dim_customer", "customer_id", dir, format)
}

// WriteEvents writes fact_events to dir. Events are exported sorted by
// (event_ts, customer_id, extra_id) for readability, matching the order the
// generator emits.
func (s *Store) WriteEvents(ctx context.Context, rows []models.Event, dir, format string) error {
	const ddl = `
		CREATE OR REPLACE TABLE fact_events (
			event_ts TIMESTAMP,
			event_date DATE,
			customer_id VARCHAR,
			market VARCHAR,
			extra_id VARCHAR,
			event_type VARCHAR,
			quantity INTEGER
		)`
	const insert = `INSERT INTO fact_events VALUES (?, ?, ?, ?, ?, ?, ?)`

	err := s.stageTable(ctx, ddl, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx,
			r.Timestamp, r.Date, r.CustomerID, r.Market, r.ExtraID, string(r.Type), r.Quantity)
		return err
	})
	if err != nil {
		return fmt.Errorf("stage fact_events: %w", err)
	}
	return s.copyTableTo(ctx, "fact_events", "event_ts, customer_id, extra_id", dir, format)
}
