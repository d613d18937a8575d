// Extragold - Digital Extras Subscription Analytics
// Copyright 2026 Nordveil Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nordveil/extragold

// Package config provides layered configuration for the Extragold pipeline.
//
// Configuration is loaded via Koanf v2 with clear precedence
// (highest priority wins):
//
//  1. Environment variables (INPUT_DIR, OUTPUT_DIR, LOG_LEVEL, ...)
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH override)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Table formats accepted for input and output files.
const (
	FormatAuto    = "auto"
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// Config is the root configuration for both the goldbuild and datagen
// commands.
type Config struct {
	Input     InputConfig     `koanf:"input"`
	Output    OutputConfig    `koanf:"output"`
	Database  DatabaseConfig  `koanf:"database"`
	Quality   QualityConfig   `koanf:"quality"`
	Generator GeneratorConfig `koanf:"generator"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// InputConfig locates the raw dimension and fact tables.
type InputConfig struct {
	// Dir holds dim_market, dim_extra, dim_customer and fact_events files.
	Dir string `koanf:"dir" validate:"required"`

	// Format is auto, parquet or csv. Auto prefers parquet when
	// fact_events.parquet exists, falling back to csv.
	Format string `koanf:"format" validate:"oneof=auto parquet csv"`
}

// OutputConfig locates the gold tables.
type OutputConfig struct {
	// Dir receives gold_daily_kpi, gold_cohort_retention, gold_dq_results.
	Dir string `koanf:"dir" validate:"required"`

	// Format is auto, parquet or csv. Auto mirrors the detected input
	// format.
	Format string `koanf:"format" validate:"oneof=auto parquet csv"`
}

// DatabaseConfig tunes the embedded DuckDB engine used for table I/O.
type DatabaseConfig struct {
	// Path is the DuckDB database location. The default ":memory:" is
	// sufficient for a batch run; a file path keeps the staged tables
	// inspectable after the run.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory" validate:"required"`

	// Threads limits DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
}

// QualityConfig tunes the data-quality checker.
type QualityConfig struct {
	// RunDate pins the DQ result date (YYYY-MM-DD) for reproducible runs.
	// Empty means today.
	RunDate string `koanf:"run_date" validate:"omitempty,datetime=2006-01-02"`

	// SampleKeys is the maximum number of offending keys reported per
	// check.
	SampleKeys int `koanf:"sample_keys" validate:"min=1,max=100"`
}

// GeneratorConfig drives the synthetic dataset generator (cmd/datagen).
type GeneratorConfig struct {
	// Seed makes generation deterministic; identical seed and settings
	// produce an identical dataset.
	Seed int64 `koanf:"seed"`

	Customers int    `koanf:"customers" validate:"min=1"`
	StartDate string `koanf:"start_date" validate:"datetime=2006-01-02"`
	EndDate   string `koanf:"end_date" validate:"datetime=2006-01-02"`

	// CampaignDate marks the start of a conversion-uplift campaign in
	// CampaignMarkets.
	CampaignDate       string   `koanf:"campaign_date" validate:"omitempty,datetime=2006-01-02"`
	CampaignMarkets    []string `koanf:"campaign_markets"`
	CampaignMultiplier float64  `koanf:"campaign_multiplier" validate:"min=0"`

	// QualityNoise is the fraction of events corrupted (duplicates and
	// renew-before-purchase rows) to feed the DQ demo.
	QualityNoise float64 `koanf:"quality_noise" validate:"min=0,max=1"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ResolveRunDate resolves the configured DQ run date, defaulting to today
// (UTC, midnight).
func (c *QualityConfig) ResolveRunDate() (time.Time, error) {
	if c.RunDate != "" {
		d, err := time.ParseInLocation("2006-01-02", c.RunDate, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid quality.run_date %q: %w", c.RunDate, err)
		}
		return d, nil
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Window resolves the generator date range.
func (c *GeneratorConfig) Window() (start, end time.Time, err error) {
	start, err = time.ParseInLocation("2006-01-02", c.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid generator.start_date %q: %w", c.StartDate, err)
	}
	end, err = time.ParseInLocation("2006-01-02", c.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid generator.end_date %q: %w", c.EndDate, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("generator.end_date %s precedes start_date %s", c.EndDate, c.StartDate)
	}
	return start, end, nil
}

// Validate checks the configuration against struct tags plus cross-field
// rules the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("configuration validation failed: field %s failed rule %q", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if _, _, err := c.Generator.Window(); err != nil {
		return err
	}
	return nil
}
