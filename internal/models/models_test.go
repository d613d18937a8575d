// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package models

import (
	"testing"
	"time"
)

func TestEventTypeValid(t *testing.T) {
	for _, typ := range KnownEventTypes {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	for _, typ := range []EventType{"", "refund", "PURCHASE", "trial"} {
		if typ.Valid() {
			t.Errorf("%q should be invalid", typ)
		}
	}
}

func TestDateOf(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "strips wall clock",
			in:   time.Date(2025, 6, 15, 23, 59, 58, 123, time.UTC),
			want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "normalizes zone before truncating",
			in:   time.Date(2025, 6, 16, 0, 30, 0, 0, berlin),
			want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight is a fixed point",
			in:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DateOf(tc.in); !got.Equal(tc.want) {
				t.Errorf("DateOf(%s) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestMonthOf(t *testing.T) {
	in := time.Date(2025, 12, 31, 18, 4, 0, 0, time.UTC)
	want := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if got := MonthOf(in); !got.Equal(want) {
		t.Errorf("MonthOf = %s, want %s", got, want)
	}
}

func TestMonthsBetween(t *testing.T) {
	month := func(y int, m time.Month) time.Time {
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		a, b time.Time
		want int
	}{
		{month(2025, 1), month(2025, 1), 0},
		{month(2025, 1), month(2025, 3), 2},
		{month(2025, 11), month(2026, 2), 3},
		{month(2025, 3), month(2025, 1), -2},
		{month(2024, 12), month(2026, 1), 13},
	}
	for _, tc := range tests {
		if got := MonthsBetween(tc.a, tc.b); got != tc.want {
			t.Errorf("MonthsBetween(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestLookupTablesLaterRowWins(t *testing.T) {
	table := NewMarketTable([]Market{
		{Code: "DE", Region: "WRONG"},
		{Code: "DE", Region: "EU"},
	})
	if len(table) != 1 {
		t.Fatalf("len = %d, want 1", len(table))
	}
	if table["DE"].Region != "EU" {
		t.Errorf("region = %q, want EU", table["DE"].Region)
	}
}
