// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

package generate

import "github.com/nordveil/extragold/internal/models"

// Markets returns the static market catalog (19 markets across 5 regions).
func Markets() []models.Market {
	return []models.Market{
		{Code: "DE", Region: "EU"}, {Code: "FR", Region: "EU"},
		{Code: "IT", Region: "EU"}, {Code: "ES", Region: "EU"},
		{Code: "NL", Region: "EU"}, {Code: "SE", Region: "EU"},
		{Code: "PL", Region: "EU"}, {Code: "GB", Region: "EU"},
		{Code: "US", Region: "NA"}, {Code: "CA", Region: "NA"},
		{Code: "BR", Region: "LATAM"}, {Code: "MX", Region: "LATAM"},
		{Code: "AE", Region: "MEA"}, {Code: "SA", Region: "MEA"},
		{Code: "IN", Region: "APAC"}, {Code: "SG", Region: "APAC"},
		{Code: "JP", Region: "APAC"}, {Code: "KR", Region: "APAC"},
		{Code: "AU", Region: "APAC"},
	}
}

// marketWeights biases customer placement towards larger markets. Index
// aligns with Markets().
var marketWeights = []float64{
	0.07, 0.06, 0.05, 0.05, 0.03,
	0.02, 0.03, 0.04,
	0.20, 0.05,
	0.06, 0.04,
	0.03, 0.02,
	0.10, 0.02, 0.04, 0.03, 0.03,
}

// Extras returns the static digital extras catalog.
func Extras() []models.Extra {
	return []models.Extra{
		{ID: "EX_01", Name: "Navigation+", Category: "Infotainment", PriceMonthly: 9.99},
		{ID: "EX_02", Name: "Remote Start", Category: "Comfort", PriceMonthly: 5.99},
		{ID: "EX_03", Name: "Advanced Parking", Category: "Safety", PriceMonthly: 7.99},
		{ID: "EX_04", Name: "Premium Audio", Category: "Infotainment", PriceMonthly: 12.99},
		{ID: "EX_05", Name: "Driver Assist", Category: "Safety", PriceMonthly: 14.99},
		{ID: "EX_06", Name: "Smart Charging", Category: "EV", PriceMonthly: 6.99},
		{ID: "EX_07", Name: "Theft Alert", Category: "Security", PriceMonthly: 4.99},
		{ID: "EX_08", Name: "Wi-Fi Hotspot", Category: "Connectivity", PriceMonthly: 8.99},
	}
}

// Customer segments and their mix.
var (
	segments       = []string{"Private", "Business", "Premium"}
	segmentWeights = []float64{0.70, 0.20, 0.10}
)

// marketRates carries the per-market baseline behavior knobs.
type marketRates struct {
	// trialRate is the probability a customer starts at least one trial.
	trialRate float64

	// convUplift scales trial-to-purchase conversion.
	convUplift float64

	// churnUplift scales monthly churn probability.
	churnUplift float64

	// usageUplift scales usage session intensity.
	usageUplift float64
}

// regionBaseRates maps a region to its baseline rates before per-market
// jitter.
func regionBaseRates(region string) marketRates {
	switch region {
	case "EU":
		return marketRates{trialRate: 0.22, convUplift: 1.05, churnUplift: 0.95, usageUplift: 1.00}
	case "NA":
		return marketRates{trialRate: 0.26, convUplift: 1.10, churnUplift: 0.90, usageUplift: 1.05}
	case "APAC":
		return marketRates{trialRate: 0.20, convUplift: 0.95, churnUplift: 1.05, usageUplift: 0.95}
	case "LATAM":
		return marketRates{trialRate: 0.18, convUplift: 0.85, churnUplift: 1.15, usageUplift: 0.90}
	default: // MEA
		return marketRates{trialRate: 0.16, convUplift: 0.90, churnUplift: 1.10, usageUplift: 0.90}
	}
}

// extraRates carries the per-extra baseline behavior knobs.
type extraRates struct {
	// baseConv is the trial-to-purchase base probability.
	baseConv float64

	// baseChurn is the monthly churn base probability.
	baseChurn float64

	// baseUsageLambda is the expected daily usage sessions while active.
	baseUsageLambda float64
}

// ratesForExtra derives behavior knobs from an extra's price and category:
// pricier extras convert worse and churn more; infotainment and
// connectivity see the heaviest daily use.
func ratesForExtra(e models.Extra) extraRates {
	conv := clamp(0.18-0.004*(e.PriceMonthly-5.0), 0.06, 0.22)
	churn := clamp(0.06+0.002*(e.PriceMonthly-5.0), 0.03, 0.10)

	var usage float64
	switch e.Category {
	case "Safety", "Security":
		usage = 0.20
	case "Infotainment", "Connectivity":
		usage = 0.45
	case "Comfort", "EV":
		usage = 0.30
	default:
		usage = 0.25
	}

	return extraRates{baseConv: conv, baseChurn: churn, baseUsageLambda: usage}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
