// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Package models provides the data structures shared across the Extragold
// pipeline: the raw event fact table, the static dimension lookups, and the
// derived gold table rows.
//
// Gold rows carry no identity or lifecycle of their own; every run recomputes
// them in full from the event store and overwrites the previous output.
package models
