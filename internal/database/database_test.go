// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nordveil/extragold/internal/config"
	"github.com/nordveil/extragold/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()
	if _, err := DetectFormat(dir); err == nil {
		t.Error("expected error for empty directory")
	}

	if err := os.WriteFile(filepath.Join(dir, "fact_events.csv"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if format, err := DetectFormat(dir); err != nil || format != config.FormatCSV {
		t.Errorf("DetectFormat = %q, %v, want csv", format, err)
	}

	// Parquet wins when both are present.
	if err := os.WriteFile(filepath.Join(dir, "fact_events.parquet"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if format, err := DetectFormat(dir); err != nil || format != config.FormatParquet {
		t.Errorf("DetectFormat = %q, %v, want parquet", format, err)
	}
}

func TestReaderExprEscapesPath(t *testing.T) {
	got := readerExpr("/tmp/o'brien/fact_events.parquet", config.FormatParquet)
	want := "read_parquet('/tmp/o''brien/fact_events.parquet')"
	if got != want {
		t.Errorf("readerExpr = %q, want %q", got, want)
	}
}

func TestTablePath(t *testing.T) {
	got := tablePath("data/raw", "dim_market", config.FormatCSV)
	want := filepath.Join("data", "raw", "dim_market.csv")
	if got != want {
		t.Errorf("tablePath = %q, want %q", got, want)
	}
}

func TestEventRoundtrip(t *testing.T) {
	for _, format := range []string{config.FormatParquet, config.FormatCSV} {
		t.Run(format, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			s := newTestStore(t)

			in := []models.Event{
				{
					Timestamp:  time.Date(2025, 1, 5, 9, 30, 0, 0, time.UTC),
					Date:       time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
					CustomerID: "C000001",
					Market:     "DE",
					ExtraID:    "EX_01",
					Type:       models.EventPurchase,
					Quantity:   1,
				},
				{
					Timestamp:  time.Date(2025, 2, 10, 17, 0, 0, 0, time.UTC),
					Date:       time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
					CustomerID: "C000001",
					Market:     "DE",
					ExtraID:    "EX_01",
					Type:       models.EventUsageSession,
					Quantity:   3,
				},
			}

			if err := s.WriteEvents(ctx, in, dir, format); err != nil {
				t.Fatalf("WriteEvents: %v", err)
			}
			if _, err := os.Stat(tablePath(dir, "fact_events", format)); err != nil {
				t.Fatalf("output file missing: %v", err)
			}

			out, err := s.LoadEvents(ctx, dir, format)
			if err != nil {
				t.Fatalf("LoadEvents: %v", err)
			}
			if len(out) != len(in) {
				t.Fatalf("len = %d, want %d", len(out), len(in))
			}
			for i := range in {
				if !out[i].Timestamp.Equal(in[i].Timestamp) || !out[i].Date.Equal(in[i].Date) {
					t.Errorf("row %d time fields differ: %+v vs %+v", i, out[i], in[i])
				}
				if out[i].CustomerID != in[i].CustomerID || out[i].Market != in[i].Market ||
					out[i].ExtraID != in[i].ExtraID || out[i].Type != in[i].Type || out[i].Quantity != in[i].Quantity {
					t.Errorf("row %d differs: %+v vs %+v", i, out[i], in[i])
				}
			}
		})
	}
}

func TestDimensionRoundtrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newTestStore(t)

	markets := []models.Market{{Code: "DE", Region: "EU"}, {Code: "US", Region: "NA"}}
	extras := []models.Extra{{ID: "EX_01", Name: "Navigation+", Category: "Infotainment", PriceMonthly: 9.99}}
	customers := []models.Customer{{
		ID: "C000001", Market: "DE", Segment: "Private",
		SignupDate: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}}

	if err := s.WriteMarkets(ctx, markets, dir, config.FormatParquet); err != nil {
		t.Fatalf("WriteMarkets: %v", err)
	}
	if err := s.WriteExtras(ctx, extras, dir, config.FormatParquet); err != nil {
		t.Fatalf("WriteExtras: %v", err)
	}
	if err := s.WriteCustomers(ctx, customers, dir, config.FormatParquet); err != nil {
		t.Fatalf("WriteCustomers: %v", err)
	}

	gotMarkets, err := s.LoadMarkets(ctx, dir, config.FormatParquet)
	if err != nil {
		t.Fatalf("LoadMarkets: %v", err)
	}
	if len(gotMarkets) != 2 || gotMarkets[0] != markets[0] || gotMarkets[1] != markets[1] {
		t.Errorf("markets = %+v, want %+v", gotMarkets, markets)
	}

	gotExtras, err := s.LoadExtras(ctx, dir, config.FormatParquet)
	if err != nil {
		t.Fatalf("LoadExtras: %v", err)
	}
	if len(gotExtras) != 1 || gotExtras[0] != extras[0] {
		t.Errorf("extras = %+v, want %+v", gotExtras, extras)
	}

	gotCustomers, err := s.LoadCustomers(ctx, dir, config.FormatParquet)
	if err != nil {
		t.Fatalf("LoadCustomers: %v", err)
	}
	if len(gotCustomers) != 1 {
		t.Fatalf("customers = %+v, want 1 row", gotCustomers)
	}
	if gotCustomers[0].ID != customers[0].ID || !gotCustomers[0].SignupDate.Equal(customers[0].SignupDate) {
		t.Errorf("customer = %+v, want %+v", gotCustomers[0], customers[0])
	}
}

func TestWriteDailyKPIReplacesExistingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newTestStore(t)

	row := models.DailyKPIRow{
		Date:                time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Market:              "DE",
		Region:              "EU",
		ExtraID:             "EX_01",
		Category:            "Infotainment",
		Purchases:           1,
		ActiveSubscriptions: 1,
		MRR:                 9.99,
	}

	if err := s.WriteDailyKPI(ctx, []models.DailyKPIRow{row}, dir, config.FormatCSV); err != nil {
		t.Fatalf("WriteDailyKPI: %v", err)
	}
	first, err := os.ReadFile(tablePath(dir, "gold_daily_kpi", config.FormatCSV))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	if err := s.WriteDailyKPI(ctx, []models.DailyKPIRow{row}, dir, config.FormatCSV); err != nil {
		t.Fatalf("WriteDailyKPI rerun: %v", err)
	}
	second, err := os.ReadFile(tablePath(dir, "gold_daily_kpi", config.FormatCSV))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	if string(first) != string(second) {
		t.Error("re-run produced different file contents")
	}

	// No temporary files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "gold_daily_kpi.csv" {
			t.Errorf("unexpected file in output dir: %s", e.Name())
		}
	}
}
