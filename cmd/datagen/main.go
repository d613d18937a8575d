// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Command datagen materializes the synthetic raw layer consumed by
// goldbuild: the dim_market, dim_extra and dim_customer lookups plus a
// seeded fact_events stream with a small configurable fraction of quality
// defects for the data-quality checks to find.
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
	"github.com/nordveil/extragold/internal/generate"
	"github.com/nordveil/extragold/internal/logging"
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
		logging.Fatal().Err(err).Msg("Data generation failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	started := time.Now()

	// Raw files land in the goldbuild input directory. Auto means Parquet;
	// there is no existing file to mirror.
	format := cfg.Input.Format
	if format == config.FormatAuto {
		format = config.FormatParquet
	}

	log := logging.With().Str("run_id", uuid.NewString()).Logger()
	log.Info().
		Str("output_dir", cfg.Input.Dir).
		Str("format", format).
		Int64("seed", cfg.Generator.Seed).
		Int("customers", cfg.Generator.Customers).
		Msg("Starting data generation")

	gen, err := generate.New(&cfg.Generator)
	if err != nil {
		return err
	}
	customers := gen.Customers()
	events := gen.Events(customers)

	store, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	if err := store.WriteMarkets(ctx, gen.Markets(), cfg.Input.Dir, format); err != nil {
		return err
	}
	if err := store.WriteExtras(ctx, gen.Extras(), cfg.Input.Dir, format); err != nil {
		return err
	}
	if err := store.WriteCustomers(ctx, customers, cfg.Input.Dir, format); err != nil {
		return err
	}
	if err := store.WriteEvents(ctx, events, cfg.Input.Dir, format); err != nil {
		return err
	}

	log.Info().
		Int("customers", len(customers)).
		Int("events", len(events)).
		Dur("elapsed", time.Since(started)).
		Msg("Data generation complete")
	return nil
}
