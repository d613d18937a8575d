// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package models

import "time"

// EventType identifies a customer lifecycle event.
type EventType string

// Lifecycle event types. The expected (but unenforced) ordering per
// (customer, extra) is purchase before renew before cancel; violations are
// surfaced by the quality checker, never rejected on input.
const (
	EventTrialStart   EventType = "trial_start"
	EventPurchase     EventType = "purchase"
	EventRenew        EventType = "renew"
	EventCancel       EventType = "cancel"
	EventUsageSession EventType = "usage_session"
)

// KnownEventTypes lists all valid event types in stable order.
var KnownEventTypes = []EventType{
	EventTrialStart,
	EventPurchase,
	EventRenew,
	EventCancel,
	EventUsageSession,
}

// Valid reports whether t is one of the known lifecycle event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTrialStart, EventPurchase, EventRenew, EventCancel, EventUsageSession:
		return true
	}
	return false
}

// Event is one row of the fact_events table. The table has no primary key;
// duplicate rows are possible and are detected, not prevented.
type Event struct {
	// Timestamp is the full event timestamp (event_ts).
	Timestamp time.Time `json:"event_ts"`

	// Date is the calendar date derived from Timestamp (event_date).
	Date time.Time `json:"event_date"`

	// CustomerID references dim_customer. May be empty on dirty data.
	CustomerID string `json:"customer_id"`

	// Market references dim_market. May be empty on dirty data.
	Market string `json:"market"`

	// ExtraID references dim_extra. May be empty on dirty data.
	ExtraID string `json:"extra_id"`

	// Type is the lifecycle event type.
	Type EventType `json:"event_type"`

	// Quantity is an optional multiplier, 1 for ordinary events.
	Quantity int `json:"quantity"`
}

// DateOf normalizes t to midnight UTC so calendar dates compare and group
// reliably regardless of the wall-clock component.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthOf truncates t to the first day of its calendar month (UTC).
func MonthOf(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the number of whole calendar months from a to b,
// where both are month-truncated timestamps. Negative when b precedes a.
func MonthsBetween(a, b time.Time) int {
	ay, am, _ := a.UTC().Date()
	by, bm, _ := b.UTC().Date()
	return (by-ay)*12 + int(bm) - int(am)
}
