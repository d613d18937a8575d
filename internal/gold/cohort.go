// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package gold

import (
	"sort"
	"time"

	"github.com/nordveil/extragold/internal/models"
)

// subscriptionKey identifies one (customer, market, extra) subscription.
type subscriptionKey struct {
	customerID string
	market     string
	extraID    string
}

// cohortKey identifies one cohort cell before the month_n expansion.
type cohortKey struct {
	cohortMonth time.Time
	market      string
	extraID     string
}

// cohortCell accumulates retained customers per month offset.
type cohortCell struct {
	// members holds distinct cohort customers, fixing cohort_size.
	members map[string]struct{}

	// retainedByMonth maps month_n to the distinct customers active in
	// that offset month.
	retainedByMonth map[int]map[string]struct{}
}

// BuildCohortRetention produces gold_cohort_retention from the raw event
// set.
//
// Each (customer, market, extra) subscription is assigned to the cohort of
// its earliest purchase month; subscriptions without a purchase never join a
// cohort, which guarantees cohort_size >= 1 for every emitted row. A cohort
// member counts as retained in month_n when it has a purchase or renew event
// n whole calendar months after the cohort month.
func BuildCohortRetention(events []models.Event) []models.CohortRetentionRow {
	// Pass 1: earliest purchase month and active months per subscription.
	firstPurchase := make(map[subscriptionKey]time.Time)
	activeMonths := make(map[subscriptionKey]map[time.Time]struct{})

	for _, ev := range events {
		if ev.Type != models.EventPurchase && ev.Type != models.EventRenew {
			continue
		}
		key := subscriptionKey{customerID: ev.CustomerID, market: ev.Market, extraID: ev.ExtraID}
		month := models.MonthOf(ev.Date)

		if ev.Type == models.EventPurchase {
			if cur, ok := firstPurchase[key]; !ok || month.Before(cur) {
				firstPurchase[key] = month
			}
		}

		months := activeMonths[key]
		if months == nil {
			months = make(map[time.Time]struct{})
			activeMonths[key] = months
		}
		months[month] = struct{}{}
	}

	// Pass 2: fold subscriptions into cohort cells. Activity before the
	// cohort month (an invalid sequence the quality checker reports) gets
	// a negative offset and is excluded here.
	cells := make(map[cohortKey]*cohortCell)
	for key, cohortMonth := range firstPurchase {
		ck := cohortKey{cohortMonth: cohortMonth, market: key.market, extraID: key.extraID}
		cell := cells[ck]
		if cell == nil {
			cell = &cohortCell{
				members:         make(map[string]struct{}),
				retainedByMonth: make(map[int]map[string]struct{}),
			}
			cells[ck] = cell
		}
		cell.members[key.customerID] = struct{}{}

		for month := range activeMonths[key] {
			monthN := models.MonthsBetween(cohortMonth, month)
			if monthN < 0 {
				continue
			}
			retained := cell.retainedByMonth[monthN]
			if retained == nil {
				retained = make(map[string]struct{})
				cell.retainedByMonth[monthN] = retained
			}
			retained[key.customerID] = struct{}{}
		}
	}

	// Pass 3: expand cells into rows. cohort_size >= 1 by construction,
	// so the division cannot fault.
	var rows []models.CohortRetentionRow
	for ck, cell := range cells {
		cohortSize := len(cell.members)
		for monthN, retained := range cell.retainedByMonth {
			rows = append(rows, models.CohortRetentionRow{
				CohortMonth:   ck.cohortMonth,
				Market:        ck.market,
				ExtraID:       ck.extraID,
				MonthN:        monthN,
				RetainedSubs:  len(retained),
				CohortSize:    cohortSize,
				RetentionRate: roundTo(float64(len(retained))/float64(cohortSize), 4),
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CohortMonth.Equal(rows[j].CohortMonth) {
			return rows[i].CohortMonth.Before(rows[j].CohortMonth)
		}
		if rows[i].Market != rows[j].Market {
			return rows[i].Market < rows[j].Market
		}
		if rows[i].ExtraID != rows[j].ExtraID {
			return rows[i].ExtraID < rows[j].ExtraID
		}
		return rows[i].MonthN < rows[j].MonthN
	})

	return rows
}
