// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcodagnone/csvgeo/geolocator"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type runOptions struct {
	CSVFile    string
	OutFile    string
	ConfigFile string
	CacheFile  string
	EnvFile    string
	APIKeyName string
}

var (
	runOpts         = &runOptions{}
	providerOptions = &geolocator.ProviderOptions{}
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Geolocate every row of a CSV file",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) (err error) {
		if err := loadEnvFile(runOpts.EnvFile); err != nil {
			return err
		}

		cfg, err := geolocator.LoadConfig(runOpts.ConfigFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		apiKey, err := geolocator.ResolveAPIKey(ctx, cfg.APIKey, runOpts.APIKeyName)
		if err != nil {
			return err
		}

		providerOptions.UserAgent = fmt.Sprintf("csvgeo/%s (+https://github.com/jcodagnone/csvgeo)", Version)

		provider, err := geolocator.NewGoogleMapsProvider(apiKey, providerOptions)
		if err != nil {
			return err
		}

		in, err := os.Open(runOpts.CSVFile)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer in.Close()

		store, err := geolocator.OpenCacheStore(runOpts.CacheFile)
		if err != nil {
			return err
		}
		defer store.Close()

		cache := geolocator.LoadCache(store)
		stats := cache.Stats()
		log.Printf("📦 Cache %s: %d resolved, %d failed addresses", runOpts.CacheFile, stats.Resolved, stats.Failed)

		defer func() {
			if sErr := cache.Save(); sErr != nil {
				log.Printf("❌ %v", sErr)
				err = errors.Join(err, sErr)

				return
			}

			stats := cache.Stats()
			log.Printf("💾 Cache saved: %d resolved, %d failed addresses", stats.Resolved, stats.Failed)
		}()

		out, err := os.Create(runOpts.OutFile)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer out.Close()

		engine := geolocator.NewEngine(provider, cache, cfg.SearchOptions())
		engine.Verbose = verbose

		pipeline := geolocator.NewPipeline(cfg.Extractor(), engine)
		pipeline.ShowProgress = true

		runErr := pipeline.Run(ctx, in, out)
		logMetrics(&engine.Metrics)

		if runErr != nil {
			return runErr
		}

		log.Printf("✅ Geolocated rows written to %s", runOpts.OutFile)

		return out.Close()
	},
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func logMetrics(m *geolocator.EngineMetrics) {
	log.Printf(
		"📍 %d rows - %d resolved, %d unresolved, %d with loss of fidelity",
		m.Rows,
		m.Resolved,
		m.Unresolved,
		m.Fallbacks,
	)
	log.Printf(
		"🔎 %d cache hits, %d known failures skipped, %d provider queries, %d without result",
		m.CacheHits,
		m.KnownFailures,
		m.ProviderQueries,
		m.ProviderMisses,
	)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runOpts.CSVFile, "csv-file", "f", "", "The CSV file to geolocate")
	runCmd.Flags().StringVarP(&runOpts.OutFile, "out-file", "o", "out.csv", "Where to write the geolocated CSV")
	runCmd.Flags().StringVarP(&runOpts.ConfigFile, "config", "c", "", "The config file (JSON or YAML)")
	runCmd.Flags().StringVar(
		&runOpts.CacheFile,
		"cache",
		geolocator.DefaultCacheFile,
		"Cache file; a .duckdb extension selects the DuckDB store",
	)
	runCmd.Flags().StringVar(&runOpts.EnvFile, "env-file", ".env", "Optional file with environment variables")
	runCmd.Flags().StringVar(
		&runOpts.APIKeyName,
		"api-key-name",
		geolocator.DefaultAPIKeyName,
		"Display name of the API key to look up through Application Default Credentials",
	)
	runCmd.Flags().BoolVar(&providerOptions.EnableHTTPTrace, "trace-http", false, "Trace geocoding HTTP requests")
	runCmd.Flags().BoolVar(
		&providerOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Trace geocoding HTTP requests including bodies",
	)
	runCmd.Flags().DurationVar(&providerOptions.Timeout, "timeout", 0, "Timeout for every geocoding request")

	_ = runCmd.MarkFlagRequired("csv-file")
	_ = runCmd.MarkFlagRequired("config")
}
