// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package models

import "time"

// Market is one row of the dim_market lookup.
type Market struct {
	// Code is the two-letter market code (e.g. "DE", "US").
	Code string `json:"market"`

	// Region groups markets (EU, NA, LATAM, MEA, APAC).
	Region string `json:"region"`
}

// Extra is one row of the dim_extra lookup: a purchasable digital extra.
type Extra struct {
	ID   string `json:"extra_id"`
	Name string `json:"extra_name"`

	// Category groups extras (Infotainment, Safety, Comfort, EV, Security,
	// Connectivity).
	Category string `json:"category"`

	// PriceMonthly is the monthly subscription price used for the MRR proxy.
	PriceMonthly float64 `json:"price_monthly"`
}

// Customer is one row of the dim_customer lookup.
type Customer struct {
	ID         string    `json:"customer_id"`
	Market     string    `json:"market"`
	Segment    string    `json:"segment"`
	SignupDate time.Time `json:"signup_date"`
}

// MarketTable is the dim_market lookup keyed by market code. Loaded once per
// run and treated as immutable afterwards.
type MarketTable map[string]Market

// ExtraTable is the dim_extra lookup keyed by extra ID.
type ExtraTable map[string]Extra

// CustomerTable is the dim_customer lookup keyed by customer ID.
type CustomerTable map[string]Customer

// NewMarketTable builds the market lookup from dimension rows. Later rows win
// on key collision, matching load order.
func NewMarketTable(rows []Market) MarketTable {
	t := make(MarketTable, len(rows))
	for _, r := range rows {
		t[r.Code] = r
	}
	return t
}

// NewExtraTable builds the extra lookup from dimension rows.
func NewExtraTable(rows []Extra) ExtraTable {
	t := make(ExtraTable, len(rows))
	for _, r := range rows {
		t[r.ID] = r
	}
	return t
}

// NewCustomerTable builds the customer lookup from dimension rows.
func NewCustomerTable(rows []Customer) CustomerTable {
	t := make(CustomerTable, len(rows))
	for _, r := range rows {
		t[r.ID] = r
	}
	return t
}
