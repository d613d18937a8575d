// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package gold

import (
	"testing"
	"time"

	"github.com/nordveil/extragold/internal/models"
)

func TestBuildCohortRetentionLifecycle(t *testing.T) {
	// Purchase in January, renew in February, cancel in March. The cancel
	// is not activity, so month_n=2 has no row.
	events := []models.Event{
		ev(day(2025, 1, 5), "C1", "DE", "EX_01", models.EventPurchase),
		ev(day(2025, 2, 10), "C1", "DE", "EX_01", models.EventRenew),
		ev(day(2025, 3, 1), "C1", "DE", "EX_01", models.EventCancel),
	}

	rows := BuildCohortRetention(events)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	jan := day(2025, 1, 1)
	for i, want := range []struct {
		monthN   int
		retained int
	}{{0, 1}, {1, 1}} {
		r := rows[i]
		if !r.CohortMonth.Equal(jan) {
			t.Errorf("row %d: cohort_month = %s, want 2025-01-01", i, r.CohortMonth)
		}
		if r.MonthN != want.monthN || r.RetainedSubs != want.retained || r.CohortSize != 1 {
			t.Errorf("row %d: month_n=%d retained=%d size=%d, want %d/%d/1",
				i, r.MonthN, r.RetainedSubs, r.CohortSize, want.monthN, want.retained)
		}
		if r.RetentionRate != 1.0 {
			t.Errorf("row %d: retention_rate = %v, want 1.0", i, r.RetentionRate)
		}
	}
}

func TestBuildCohortRetentionMonthZeroAlwaysFull(t *testing.T) {
	// Every cohort member is active in its purchase month by definition.
	events := []models.Event{
		ev(day(2025, 1, 5), "C1", "DE", "EX_01", models.EventPurchase),
		ev(day(2025, 1, 20), "C2", "DE", "EX_01", models.EventPurchase),
		ev(day(2025, 1, 28), "C3", "DE", "EX_01", models.EventPurchase),
		ev(day(2025, 2, 5), "C1", "DE", "EX_01", models.EventRenew),
	}

	rows := BuildCohortRetention(events)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	m0 := rows[0]
	if m0.MonthN != 0 || m0.RetainedSubs != 3 || m0.CohortSize != 3 || m0.RetentionRate != 1.0 {
		t.Errorf("month 0: retained=%d size=%d rate=%v, want 3/3/1.0", m0.RetainedSubs, m0.CohortSize, m0.RetentionRate)
	}

	m1 := rows[1]
	if m1.MonthN != 1 || m1.RetainedSubs != 1 || m1.CohortSize != 3 {
		t.Errorf("month 1: retained=%d size=%d, want 1/3", m1.RetainedSubs, m1.CohortSize)
	}
	if m1.RetentionRate != 0.3333 {
		t.Errorf("month 1: retention_rate = %v, want 0.3333", m1.RetentionRate)
	}
}

func TestBuildCohortRetentionSplitsByMarketAndExtra(t *testing.T) {
	events := []models.Event{
		ev(day(2025, 1, 5), "C1", "DE", "EX_01", models.EventPurchase),
		ev(day(2025, 1, 6), "C2", "US", "EX_01", models.EventPurchase),
		ev(day(2025, 1, 7), "C3", "DE", "EX_05", models.EventPurchase),
	}

	rows := BuildCohortRetention(events)
	if len(rows) != 3 {
		t.Fatalf("expected 3 cohort cells, got %d", len(rows))
	}
	for _, r := range rows {
		if r.CohortSize != 1 || r.MonthN != 0 || r.RetainedSubs != 1 {
			t.Errorf("cell %s/%s: size=%d month_n=%d retained=%d, want 1/0/1",
				r.Market, r.ExtraID, r.CohortSize, r.MonthN, r.RetainedSubs)
		}
	}

	// Sorted by cohort_month, market, extra_id, month_n.
	if rows[0].Market != "DE" || rows[0].ExtraID != "EX_01" {
		t.Errorf("row 0 = %s/%s, want DE/EX_01", rows[0].Market, rows[0].ExtraID)
	}
	if rows[1].Market != "DE" || rows[1].ExtraID != "EX_05" {
		t.Errorf("row 1 = %s/%s, want DE/EX_05", rows[1].Market, rows[1].ExtraID)
	}
	if rows[2].Market != "US" {
		t.Errorf("row 2 market = %s, want US", rows[2].Market)
	}
}

func TestBuildCohortRetentionRenewWithoutPurchaseExcluded(t *testing.T) {
	// A renew with no purchase never joins a cohort; the quality checker
	// reports it instead.
	events := []models.Event{
		ev(day(2025, 3, 10), "C1", "DE", "EX_01", models.EventRenew),
	}

	if rows := BuildCohortRetention(events); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestBuildCohortRetentionActivityBeforeCohortMonthSkipped(t *testing.T) {
	// A renew shifted before the first purchase would yield a negative
	// month offset; it is dropped from retention.
	events := []models.Event{
		ev(day(2025, 3, 5), "C1", "DE", "EX_01", models.EventPurchase),
		ev(day(2025, 2, 20), "C1", "DE", "EX_01", models.EventRenew),
	}

	rows := BuildCohortRetention(events)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].MonthN != 0 || !rows[0].CohortMonth.Equal(day(2025, 3, 1)) {
		t.Errorf("got month_n=%d cohort_month=%s, want 0 and 2025-03-01", rows[0].MonthN, rows[0].CohortMonth)
	}
}

func TestBuildCohortRetentionGapMonths(t *testing.T) {
	// Activity in month 0 and month 3 only; months 1 and 2 emit no rows.
	events := []models.Event{
		ev(day(2025, 1, 5), "C1", "DE", "EX_01", models.EventPurchase),
		ev(day(2025, 4, 5), "C1", "DE", "EX_01", models.EventRenew),
	}

	rows := BuildCohortRetention(events)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].MonthN != 0 || rows[1].MonthN != 3 {
		t.Errorf("month offsets = %d, %d, want 0 and 3", rows[0].MonthN, rows[1].MonthN)
	}
}

func TestMonthsBetweenCrossYear(t *testing.T) {
	a := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := models.MonthsBetween(a, b); got != 3 {
		t.Errorf("MonthsBetween = %d, want 3", got)
	}
}
