// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Package gold derives the analytics-ready gold tables from the raw event
// store: per-day KPIs (gold_daily_kpi) and first-purchase-month cohort
// retention (gold_cohort_retention).
//
// Both aggregators are explicit group-by + sort + scan passes over the full
// in-memory event set. They consume the raw events exactly as loaded:
// anomalies the quality checker reports (duplicates, invalid sequences) are
// intentionally reflected in the aggregates rather than filtered out, so the
// two surfaces always agree.
package gold
