// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Package quality scans the raw event table and the static lookups for data
// anomalies and reports them as gold_dq_results rows.
//
// Checks observe, never repair: the event set is handed to the KPI and
// cohort aggregators untouched, so anomalies reported here are reflected in
// the aggregates exactly as found. Findings are never fatal.
package quality

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/nordveil/extragold/internal/logging"
	"github.com/nordveil/extragold/internal/models"
)

// Check names emitted into gold_dq_results.
const (
	CheckDuplicates       = "duplicates"
	CheckMissingKeys      = "missing_keys"
	CheckInvalidSequence  = "invalid_sequence"
	CheckMarketMismatch   = "market_mismatch"
	CheckNonPositivePrice = "non_positive_price"
)

// severityByCheck is the fixed check-to-severity mapping, applied when a
// check has at least one failed row. Zero failures always report info.
var severityByCheck = map[string]models.CheckSeverity{
	CheckDuplicates:       models.SeverityWarn,
	CheckMissingKeys:      models.SeverityFail,
	CheckInvalidSequence:  models.SeverityWarn,
	CheckMarketMismatch:   models.SeverityWarn,
	CheckNonPositivePrice: models.SeverityFail,
}

// Checker evaluates the named data-quality checks for a fixed run date.
type Checker struct {
	// runDate stamps every result row; pinning it keeps re-runs
	// byte-identical.
	runDate time.Time

	// sampleLimit caps the offending keys reported per check.
	sampleLimit int
}

// New returns a Checker for the given run date. sampleLimit values below 1
// fall back to 5.
func New(runDate time.Time, sampleLimit int) *Checker {
	if sampleLimit < 1 {
		sampleLimit = 5
	}
	return &Checker{runDate: models.DateOf(runDate), sampleLimit: sampleLimit}
}

// Run evaluates every check and returns one result row per check, in a
// stable order.
func (c *Checker) Run(events []models.Event, customers models.CustomerTable, extras []models.Extra) []models.DQResultRow {
	results := []models.DQResultRow{
		c.checkMissingKeys(events),
		c.checkDuplicates(events),
		c.checkInvalidSequence(events),
		c.checkMarketMismatch(events, customers),
		c.checkNonPositivePrice(extras),
	}

	for _, r := range results {
		logging.Info().
			Str("check", r.CheckName).
			Str("severity", string(r.Severity)).
			Int64("failed_rows", r.FailedRows).
			Msg("Data quality check evaluated")
	}
	return results
}

// checkMissingKeys counts events with an empty key field: customer, market,
// extra, event type, or a missing timestamp/date.
func (c *Checker) checkMissingKeys(events []models.Event) models.DQResultRow {
	var failed int64
	var samples []string

	for i, ev := range events {
		if ev.CustomerID != "" && ev.Market != "" && ev.ExtraID != "" &&
			ev.Type != "" && !ev.Timestamp.IsZero() && !ev.Date.IsZero() {
			continue
		}
		failed++
		if len(samples) < c.sampleLimit {
			samples = append(samples, fmt.Sprintf("row=%d customer_id=%q market=%q extra_id=%q", i, ev.CustomerID, ev.Market, ev.ExtraID))
		}
	}

	return c.result(CheckMissingKeys, "events", failed, samples)
}

// checkDuplicates counts rows identical across all event fields. The open
// choice between whole-row and business-key equality is resolved as
// whole-row (see DESIGN.md); failed_rows counts the extra copies, so a row
// appearing three times contributes two.
func (c *Checker) checkDuplicates(events []models.Event) models.DQResultRow {
	var failed int64
	var samples []string

	seen := make(map[string]int, len(events))
	for _, ev := range events {
		key := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d",
			ev.Timestamp.UTC().Format(time.RFC3339), ev.Date.UTC().Format("2006-01-02"),
			ev.CustomerID, ev.Market, ev.ExtraID, ev.Type, ev.Quantity)
		seen[key]++
		if seen[key] > 1 {
			failed++
			// Sample the key the first time it duplicates, keeping
			// input order for determinism.
			if seen[key] == 2 && len(samples) < c.sampleLimit {
				samples = append(samples, key)
			}
		}
	}

	return c.result(CheckDuplicates, "events", failed, samples)
}

// checkInvalidSequence counts renew or cancel occurrences timestamped
// before the earliest purchase of their (customer, extra) pair, or with no
// purchase at all.
func (c *Checker) checkInvalidSequence(events []models.Event) models.DQResultRow {
	type pair struct{ customerID, extraID string }

	firstPurchase := make(map[pair]time.Time)
	for _, ev := range events {
		if ev.Type != models.EventPurchase {
			continue
		}
		p := pair{customerID: ev.CustomerID, extraID: ev.ExtraID}
		if cur, ok := firstPurchase[p]; !ok || ev.Timestamp.Before(cur) {
			firstPurchase[p] = ev.Timestamp
		}
	}

	var failed int64
	var samples []string
	for _, ev := range events {
		if ev.Type != models.EventRenew && ev.Type != models.EventCancel {
			continue
		}
		purchaseTS, ok := firstPurchase[pair{customerID: ev.CustomerID, extraID: ev.ExtraID}]
		if ok && !ev.Timestamp.Before(purchaseTS) {
			continue
		}
		failed++
		if len(samples) < c.sampleLimit {
			samples = append(samples, fmt.Sprintf("%s|%s|%s|%s",
				ev.CustomerID, ev.ExtraID, ev.Type, ev.Timestamp.UTC().Format(time.RFC3339)))
		}
	}

	return c.result(CheckInvalidSequence, "events", failed, samples)
}

// checkMarketMismatch counts events whose market disagrees with the
// customer dimension for a known customer. Unknown customers are skipped
// here; a missing dimension row is a referential gap, not a contradiction.
func (c *Checker) checkMarketMismatch(events []models.Event, customers models.CustomerTable) models.DQResultRow {
	var failed int64
	var samples []string

	for _, ev := range events {
		cust, ok := customers[ev.CustomerID]
		if !ok || cust.Market == ev.Market {
			continue
		}
		failed++
		if len(samples) < c.sampleLimit {
			samples = append(samples, fmt.Sprintf("%s|event=%s|customer=%s", ev.CustomerID, ev.Market, cust.Market))
		}
	}

	return c.result(CheckMarketMismatch, "events/customers", failed, samples)
}

// checkNonPositivePrice counts extras priced at or below zero, which would
// zero out or invert the MRR proxy.
func (c *Checker) checkNonPositivePrice(extras []models.Extra) models.DQResultRow {
	offending := make([]models.Extra, 0)
	for _, e := range extras {
		if e.PriceMonthly <= 0 {
			offending = append(offending, e)
		}
	}
	sort.Slice(offending, func(i, j int) bool { return offending[i].ID < offending[j].ID })

	var samples []string
	for _, e := range offending {
		if len(samples) >= c.sampleLimit {
			break
		}
		samples = append(samples, fmt.Sprintf("%s|price=%.2f", e.ID, e.PriceMonthly))
	}

	return c.result(CheckNonPositivePrice, "extras", int64(len(offending)), samples)
}

// result assembles a DQResultRow, downgrading severity to info when nothing
// failed and JSON-encoding the sample keys.
func (c *Checker) result(checkName, tableName string, failed int64, samples []string) models.DQResultRow {
	severity := models.SeverityInfo
	if failed > 0 {
		severity = severityByCheck[checkName]
	}
	if samples == nil {
		samples = []string{}
	}

	encoded, err := json.Marshal(samples)
	if err != nil {
		// Marshalling []string cannot realistically fail; degrade to an
		// empty sample rather than aborting the run.
		logging.Warn().Err(err).Str("check", checkName).Msg("Failed to encode sample keys")
		encoded = []byte("[]")
	}

	return models.DQResultRow{
		Date:       c.runDate,
		CheckName:  checkName,
		TableName:  tableName,
		Severity:   severity,
		FailedRows: failed,
		SampleKeys: string(encoded),
	}
}
