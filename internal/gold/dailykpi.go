// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package gold

import (
	"math"
	"sort"
	"time"

	"github.com/nordveil/extragold/internal/models"
)

// kpiKey identifies one daily KPI group.
type kpiKey struct {
	date    time.Time
	market  string
	extraID string
}

// kpiAccum collects per-group counts before the prefix-sum pass.
type kpiAccum struct {
	trials    int
	purchases int
	renewals  int
	cancels   int
	sessions  int

	// usageCustomers holds distinct customers with a usage session that
	// day, for the active_users count.
	usageCustomers map[string]struct{}
}

// BuildDailyKPI produces one gold_daily_kpi row per (date, market, extra)
// combination that has at least one event. Dates without events are absent;
// the table is never zero-filled.
//
// active_subscriptions is a running sum of (purchases + renewals - cancels)
// per (market, extra) over dates in ascending order. It is a deliberate
// proxy for subscription state, not a state machine: overcounted cancels
// drive it negative and that raw arithmetic is preserved.
func BuildDailyKPI(events []models.Event, markets models.MarketTable, extras models.ExtraTable) []models.DailyKPIRow {
	groups := make(map[kpiKey]*kpiAccum)

	for _, ev := range events {
		key := kpiKey{date: models.DateOf(ev.Date), market: ev.Market, extraID: ev.ExtraID}
		acc := groups[key]
		if acc == nil {
			acc = &kpiAccum{usageCustomers: make(map[string]struct{})}
			groups[key] = acc
		}

		switch ev.Type {
		case models.EventTrialStart:
			acc.trials++
		case models.EventPurchase:
			acc.purchases++
		case models.EventRenew:
			acc.renewals++
		case models.EventCancel:
			acc.cancels++
		case models.EventUsageSession:
			acc.sessions++
			acc.usageCustomers[ev.CustomerID] = struct{}{}
		}
	}

	rows := make([]models.DailyKPIRow, 0, len(groups))
	for key, acc := range groups {
		row := models.DailyKPIRow{
			Date:        key.date,
			Market:      key.market,
			ExtraID:     key.extraID,
			Trials:      acc.trials,
			Purchases:   acc.purchases,
			Renewals:    acc.renewals,
			Cancels:     acc.cancels,
			ActiveUsers: len(acc.usageCustomers),
			Sessions:    acc.sessions,
		}
		// Unknown market/extra references stay in the output with empty
		// region/category and zero price; the quality checker surfaces
		// them, the aggregation never drops them.
		if m, ok := markets[key.market]; ok {
			row.Region = m.Region
		}
		if e, ok := extras[key.extraID]; ok {
			row.Category = e.Category
		}
		rows = append(rows, row)
	}

	// Sort by (market, extra, date) so each (market, extra) series is
	// contiguous and date-ascending for the prefix-sum scan. Grouping by
	// calendar date collapses any within-day ordering ties, so the sums
	// are reproducible regardless of input order.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Market != rows[j].Market {
			return rows[i].Market < rows[j].Market
		}
		if rows[i].ExtraID != rows[j].ExtraID {
			return rows[i].ExtraID < rows[j].ExtraID
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	// Per-group prefix sum over sorted dates (unbounded preceding window).
	var (
		curMarket, curExtra string
		running             int
		first               = true
	)
	for i := range rows {
		if first || rows[i].Market != curMarket || rows[i].ExtraID != curExtra {
			curMarket, curExtra = rows[i].Market, rows[i].ExtraID
			running = 0
			first = false
		}
		running += rows[i].Purchases + rows[i].Renewals - rows[i].Cancels
		rows[i].ActiveSubscriptions = running

		price := 0.0
		if e, ok := extras[rows[i].ExtraID]; ok {
			price = e.PriceMonthly
		}
		rows[i].MRR = roundTo(float64(rows[i].ActiveSubscriptions)*price, 2)
	}

	return rows
}

// roundTo rounds x half away from zero to the given number of decimal
// places.
func roundTo(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
