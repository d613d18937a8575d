// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Command goldbuild rebuilds the gold layer from the raw dimension and fact
// tables: it loads dim_market, dim_extra, dim_customer and fact_events from
// the input directory, recomputes gold_daily_kpi, gold_cohort_retention and
// gold_dq_results in full, and writes them to the output directory.
//
// The build is idempotent: outputs are deterministic functions of the inputs
// and replace previous files atomically, so re-running on unchanged data
// yields identical files.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nordveil/extragold/internal/config"
	"github.com/nordveil/extragold/internal/database"
	"github.com/nordveil/extragold/internal/gold"
	"github.com/nordveil/extragold/internal/logging"
	"github.com/nordveil/extragold/internal/models"
	"github.com/nordveil/extragold/internal/quality"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Gold build failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	started := time.Now()

	runDate, err := cfg.Quality.ResolveRunDate()
	if err != nil {
		return err
	}

	inFormat := cfg.Input.Format
	if inFormat == config.FormatAuto {
		inFormat, err = database.DetectFormat(cfg.Input.Dir)
		if err != nil {
			return err
		}
	}
	outFormat := cfg.Output.Format
	if outFormat == config.FormatAuto {
		outFormat = inFormat
	}

	log := logging.With().Str("run_id", uuid.NewString()).Logger()
	log.Info().
		Str("input_dir", cfg.Input.Dir).
		Str("output_dir", cfg.Output.Dir).
		Str("input_format", inFormat).
		Str("output_format", outFormat).
		Str("run_date", runDate.Format("2006-01-02")).
		Msg("Starting gold build")

	store, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	markets, err := store.LoadMarkets(ctx, cfg.Input.Dir, inFormat)
	if err != nil {
		return err
	}
	extras, err := store.LoadExtras(ctx, cfg.Input.Dir, inFormat)
	if err != nil {
		return err
	}
	customers, err := store.LoadCustomers(ctx, cfg.Input.Dir, inFormat)
	if err != nil {
		return err
	}
	events, err := store.LoadEvents(ctx, cfg.Input.Dir, inFormat)
	if err != nil {
		return err
	}
	log.Info().
		Int("markets", len(markets)).
		Int("extras", len(extras)).
		Int("customers", len(customers)).
		Int("events", len(events)).
		Msg("Raw tables loaded")

	marketTable := models.NewMarketTable(markets)
	extraTable := models.NewExtraTable(extras)
	customerTable := models.NewCustomerTable(customers)

	kpiRows := gold.BuildDailyKPI(events, marketTable, extraTable)
	cohortRows := gold.BuildCohortRetention(events)
	dqRows := quality.New(runDate, cfg.Quality.SampleKeys).Run(events, customerTable, extras)

	if err := store.WriteDailyKPI(ctx, kpiRows, cfg.Output.Dir, outFormat); err != nil {
		return err
	}
	if err := store.WriteCohortRetention(ctx, cohortRows, cfg.Output.Dir, outFormat); err != nil {
		return err
	}
	if err := store.WriteDQResults(ctx, dqRows, cfg.Output.Dir, outFormat); err != nil {
		return err
	}

	log.Info().
		Int("daily_kpi_rows", len(kpiRows)).
		Int("cohort_rows", len(cohortRows)).
		Int("dq_rows", len(dqRows)).
		Dur("elapsed", time.Since(started)).
		Msg("Gold build complete")
	return nil
}
