// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Package generate produces the synthetic raw layer: static market and
// extras catalogs, a seeded customer base, and a business-plausible event
// stream with controlled quality defects injected on top.
//
// All randomness flows through a single seeded source, so the same
// configuration reproduces the same dataset byte for byte.
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/nordveil/extragold/internal/config"
	"github.com/nordveil/extragold/internal/logging"
	"github.com/nordveil/extragold/internal/models"
)

// Generator builds the synthetic dataset from one seeded random source.
type Generator struct {
	cfg *config.GeneratorConfig
	rng *rand.Rand

	start time.Time
	end   time.Time

	// campaignDate is zero when no campaign is configured.
	campaignDate time.Time

	markets []models.Market
	extras  []models.Extra

	// perMarket caches jittered rates keyed by market code.
	perMarket map[string]marketRates
}

// New returns a Generator for the given configuration. Rate jitter is drawn
// up front so customer and event generation see a stable rate table.
func New(cfg *config.GeneratorConfig) (*Generator, error) {
	start, end, err := cfg.Window()
	if err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		start:     start,
		end:       end,
		markets:   Markets(),
		extras:    Extras(),
		perMarket: make(map[string]marketRates),
	}

	if cfg.CampaignDate != "" {
		g.campaignDate, err = time.ParseInLocation("2006-01-02", cfg.CampaignDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid generator.campaign_date %q: %w", cfg.CampaignDate, err)
		}
	}

	for _, m := range g.markets {
		base := regionBaseRates(m.Region)
		jitter := 0.9 + 0.2*g.rng.Float64()
		base.trialRate = clamp(base.trialRate*jitter, 0.05, 0.40)
		g.perMarket[m.Code] = base
	}
	return g, nil
}

// Markets returns the market catalog used by this generator.
func (g *Generator) Markets() []models.Market { return g.markets }

// Extras returns the extras catalog used by this generator.
func (g *Generator) Extras() []models.Extra { return g.extras }

// Customers draws the customer base: weighted market placement, segment mix,
// and signup dates biased towards the start of the window so subscriptions
// have room to renew.
func (g *Generator) Customers() []models.Customer {
	windowDays := int(g.end.Sub(g.start).Hours()/24) + 1

	customers := make([]models.Customer, 0, g.cfg.Customers)
	for i := 0; i < g.cfg.Customers; i++ {
		market := g.markets[g.weightedIndex(marketWeights)]
		segment := segments[g.weightedIndex(segmentWeights)]

		offset := int(g.betaEarly() * float64(windowDays-1))
		signup := g.start.AddDate(0, 0, offset)

		customers = append(customers, models.Customer{
			ID:         fmt.Sprintf("C%06d", i+1),
			Market:     market.Code,
			Segment:    segment,
			SignupDate: signup,
		})
	}
	return customers
}

// Events simulates the subscription lifecycle for every customer and then
// injects quality noise. The returned slice is sorted by timestamp, then
// customer and extra, so output files are stable for a given seed.
func (g *Generator) Events(customers []models.Customer) []models.Event {
	var events []models.Event
	for i := range customers {
		events = append(events, g.customerLifecycle(&customers[i])...)
	}

	events = g.injectNoise(events)

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		if events[i].CustomerID != events[j].CustomerID {
			return events[i].CustomerID < events[j].CustomerID
		}
		if events[i].ExtraID != events[j].ExtraID {
			return events[i].ExtraID < events[j].ExtraID
		}
		return events[i].Type < events[j].Type
	})

	logging.Info().
		Int("customers", len(customers)).
		Int("events", len(events)).
		Int64("seed", g.cfg.Seed).
		Msg("Synthetic event stream generated")
	return events
}

// customerLifecycle walks one customer through trial, purchase, monthly
// renewals, optional cancellation, and daily usage for each extra they try.
func (g *Generator) customerLifecycle(cust *models.Customer) []models.Event {
	end := g.end
	rates := g.perMarket[cust.Market]

	segmentUplift := 1.0
	switch cust.Segment {
	case "Business":
		segmentUplift = 1.15
	case "Premium":
		segmentUplift = 1.30
	}

	var events []models.Event
	for _, extra := range g.extras {
		er := ratesForExtra(extra)

		// Trial starts 0-60 days after signup, capped at the window end.
		trialDay := cust.SignupDate.AddDate(0, 0, g.rng.Intn(61))

		trialProb := clamp(rates.trialRate*g.campaignUplift(cust.Market, trialDay), 0.0, 0.9)
		if g.rng.Float64() >= trialProb {
			continue
		}
		if trialDay.After(end) {
			continue
		}
		events = append(events, g.event(cust, extra.ID, models.EventTrialStart, trialDay, 1))

		convProb := clamp(er.baseConv*rates.convUplift*segmentUplift*g.campaignUplift(cust.Market, trialDay), 0.0, 0.95)
		if g.rng.Float64() >= convProb {
			continue
		}

		// Purchase follows within three weeks of the trial.
		purchaseDay := trialDay.AddDate(0, 0, g.rng.Intn(22))
		if purchaseDay.After(end) {
			continue
		}
		events = append(events, g.event(cust, extra.ID, models.EventPurchase, purchaseDay, 1))

		churnProb := clamp(er.baseChurn*rates.churnUplift/segmentUplift, 0.005, 0.5)
		lambda := er.baseUsageLambda * rates.usageUplift * segmentUplift

		active := purchaseDay
		cancelled := false
		for {
			renewDay := active.AddDate(0, 0, 30)
			if renewDay.After(end) {
				break
			}
			if g.rng.Float64() < churnProb {
				events = append(events, g.event(cust, extra.ID, models.EventCancel, renewDay, 1))
				cancelled = true
				break
			}
			events = append(events, g.event(cust, extra.ID, models.EventRenew, renewDay, 1))
			active = renewDay
		}

		// Daily usage while the subscription is live.
		usageEnd := end
		if cancelled {
			usageEnd = active.AddDate(0, 0, 30)
		}
		for day := purchaseDay; !day.After(usageEnd); day = day.AddDate(0, 0, 1) {
			if n := g.poisson(lambda); n > 0 {
				events = append(events, g.event(cust, extra.ID, models.EventUsageSession, day, n))
			}
		}
	}
	return events
}

// event assembles one raw event with an intra-day timestamp.
func (g *Generator) event(cust *models.Customer, extraID string, typ models.EventType, day time.Time, qty int) models.Event {
	ts := day.Add(time.Duration(g.rng.Intn(24*3600)) * time.Second)
	return models.Event{
		Timestamp:  ts,
		Date:       models.DateOf(day),
		CustomerID: cust.ID,
		Market:     cust.Market,
		ExtraID:    extraID,
		Type:       typ,
		Quantity:   qty,
	}
}

// campaignUplift returns the configured multiplier when the market is in a
// campaign and the day falls on or after the campaign date, 1.0 otherwise.
func (g *Generator) campaignUplift(market string, day time.Time) float64 {
	if g.campaignDate.IsZero() || day.Before(g.campaignDate) {
		return 1.0
	}
	for _, m := range g.cfg.CampaignMarkets {
		if m == market {
			return g.cfg.CampaignMultiplier
		}
	}
	return 1.0
}

// injectNoise corrupts a configured fraction of the event stream: half the
// budget duplicates rows verbatim, the other half shifts renew events back
// before their purchase to create invalid sequences.
func (g *Generator) injectNoise(events []models.Event) []models.Event {
	if g.cfg.QualityNoise <= 0 || len(events) == 0 {
		return events
	}

	budget := int(math.Round(g.cfg.QualityNoise * float64(len(events))))
	if budget == 0 {
		return events
	}
	dupBudget := budget / 2
	shiftBudget := budget - dupBudget

	for i := 0; i < dupBudget; i++ {
		events = append(events, events[g.rng.Intn(len(events))])
	}

	var renewIdx []int
	for i, ev := range events {
		if ev.Type == models.EventRenew {
			renewIdx = append(renewIdx, i)
		}
	}
	for i := 0; i < shiftBudget && len(renewIdx) > 0; i++ {
		idx := renewIdx[g.rng.Intn(len(renewIdx))]
		// Pull the renew 31-40 days back so it lands before its purchase.
		shift := 31 + g.rng.Intn(10)
		events[idx].Timestamp = events[idx].Timestamp.AddDate(0, 0, -shift)
		events[idx].Date = models.DateOf(events[idx].Timestamp)
	}

	logging.Debug().
		Int("duplicated", dupBudget).
		Int("shifted", shiftBudget).
		Msg("Quality noise injected")
	return events
}

// weightedIndex samples an index proportional to the given weights.
func (g *Generator) weightedIndex(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := g.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// betaEarly samples Beta(2, 5), biasing values towards the low end of
// [0, 1). Integer-parameter beta variates are order statistics of uniforms,
// so the second smallest of six draws suffices.
func (g *Generator) betaEarly() float64 {
	var draws [6]float64
	for i := range draws {
		draws[i] = g.rng.Float64()
	}
	sort.Float64s(draws[:])
	return draws[1]
}

// poisson draws a Poisson variate via Knuth's product method; lambda values
// here stay well under one, so the loop is short.
func (g *Generator) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= g.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
