// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// This file contains the gold table row types. Column sets follow the
// downstream BI dashboard contract and must stay stable across runs.
package models

import "time"

// DailyKPIRow is one row of gold_daily_kpi: per-day activity for one
// (market, extra) combination. Dates with no events for a combination are
// absent; the table is not zero-filled.
type DailyKPIRow struct {
	Date     time.Time `json:"date"`
	Market   string    `json:"market"`
	Region   string    `json:"region"`
	ExtraID  string    `json:"extra_id"`
	Category string    `json:"category"`

	Trials    int `json:"trials"`
	Purchases int `json:"purchases"`
	Renewals  int `json:"renewals"`
	Cancels   int `json:"cancels"`

	// ActiveSubscriptions is the running net-adds sum
	// (purchases + renewals - cancels) over all dates up to and including
	// Date, per (market, extra). It is a proxy, not a subscription state
	// machine, and can go negative when cancels are overcounted.
	ActiveSubscriptions int `json:"active_subscriptions"`

	// ActiveUsers is the distinct count of customers with a usage session
	// on Date.
	ActiveUsers int `json:"active_users"`

	// Sessions is the count of usage_session events on Date.
	Sessions int `json:"sessions"`

	// MRR approximates monthly recurring revenue as
	// ActiveSubscriptions * price_monthly, rounded to 2 decimal places.
	MRR float64 `json:"mrr"`
}

// CohortRetentionRow is one row of gold_cohort_retention: how many members of
// a first-purchase-month cohort were still active month_n months later.
type CohortRetentionRow struct {
	// CohortMonth is the calendar month of the cohort's first purchase,
	// truncated to the first of the month.
	CohortMonth time.Time `json:"cohort_month"`

	Market  string `json:"market"`
	ExtraID string `json:"extra_id"`

	// MonthN is the whole-month offset from CohortMonth, >= 0.
	MonthN int `json:"month_n"`

	// RetainedSubs is the distinct count of cohort members with a purchase
	// or renew event in month MonthN.
	RetainedSubs int `json:"retained_subs"`

	// CohortSize is the distinct count of cohort members. Always >= 1 by
	// construction (cohorts only exist through a purchase).
	CohortSize int `json:"cohort_size"`

	// RetentionRate is RetainedSubs / CohortSize rounded to 4 decimal
	// places. Exactly 1.0 at MonthN 0.
	RetentionRate float64 `json:"retention_rate"`
}

// CheckSeverity classifies a data-quality finding.
type CheckSeverity string

// Severity levels for quality findings. A check with zero failed rows is
// always reported at SeverityInfo.
const (
	SeverityInfo CheckSeverity = "info"
	SeverityWarn CheckSeverity = "warn"
	SeverityFail CheckSeverity = "fail"
)

// DQResultRow is one row of gold_dq_results: the outcome of a single named
// data-quality check for one run date.
type DQResultRow struct {
	// Date is the run date the check was evaluated for.
	Date time.Time `json:"date"`

	CheckName string `json:"check_name"`

	// TableName names the table(s) the check scanned, e.g. "events" or
	// "events/customers".
	TableName string `json:"table_name"`

	Severity CheckSeverity `json:"severity"`

	// FailedRows counts offending rows (or extra copies, for duplicates).
	FailedRows int64 `json:"failed_rows"`

	// SampleKeys is a small deterministic JSON-encoded sample of offending
	// keys for debugging, not an exhaustive report.
	SampleKeys string `json:"sample_keys"`
}
