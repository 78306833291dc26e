// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jcodagnone/csvgeo/geolocator"
	"github.com/jcodagnone/csvgeo/geolocator/utils"
	"github.com/spf13/cobra"
)

var (
	cacheFile  string
	serveAddr  string
	coverageN  int
	coverageAt int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the geocoding cache",
}

// openCache loads an existing cache file; unlike run it refuses to start
// from an empty one.
func openCache() (*geolocator.Cache, geolocator.CacheStore, error) {
	if _, err := os.Stat(cacheFile); errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("cache not found at %s - run 'csvgeo run' first", cacheFile)
	}

	store, err := geolocator.OpenCacheStore(cacheFile)
	if err != nil {
		return nil, nil, err
	}

	return geolocator.LoadCache(store), store, nil
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the content of the cache",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cache, store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		stats := cache.Stats()
		fmt.Printf("Cache: %s\n", cacheFile)
		fmt.Printf("  Resolved addresses: %s\n", utils.FormatInt(int64(stats.Resolved)))
		fmt.Printf("  Failed addresses:   %s\n", utils.FormatInt(int64(stats.Failed)))

		coverage := cache.Coverage(coverageAt)
		if len(coverage) == 0 {
			return nil
		}

		fmt.Printf("\nH3 coverage at resolution %d (%d cells):\n", coverageAt, len(coverage))

		a, b, c := strings.Repeat("─", 15), strings.Repeat("─", 22), strings.Repeat("─", 8)
		fmt.Printf("╭─%-15s─┬─%-22s─┬─%8s─╮\n", a, b, c)
		fmt.Printf("│ %-15s │ %-22s │ %8s │\n", "Cell", "Center", "Count")
		fmt.Printf("├─%-15s─┼─%-22s─┼─%8s─┤\n", a, b, c)

		for i, cell := range coverage {
			if i == coverageN {
				fmt.Printf("│ %-15s │ %-22s │ %8s │\n", "…", "", "")

				break
			}

			center := fmt.Sprintf("%.4f, %.4f", cell.Lat, cell.Lng)
			fmt.Printf("│ %-15s │ %-22s │ %8d │\n", cell.Cell, center, cell.Count)
		}

		fmt.Printf("╰─%-15s─┴─%-22s─┴─%8s─╯\n", a, b, c)

		return nil
	},
}

var cacheServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Browse the cache over HTTP (read only)",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cache, store, err := openCache()
		if err != nil {
			return err
		}

		// the server keeps its own snapshot
		if err := store.Close(); err != nil {
			return err
		}

		log.Printf("🌐 Serving %s on http://%s/api/cache/stats", cacheFile, serveAddr)

		return geolocator.NewCacheServer(cache).Run(serveAddr)
	},
}

var cacheForgetCmd = &cobra.Command{
	Use:   "forget <address>...",
	Short: "Remove addresses from the cache so the next run queries them again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cache, store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		forgotten := 0

		for _, arg := range args {
			addr := utils.Lower(arg)
			if cache.Forget(addr) {
				forgotten++

				log.Printf("🗑️ Forgot %q", addr)
			} else {
				log.Printf("⚠️ %q is not in the cache", addr)
			}
		}

		if forgotten == 0 {
			return nil
		}

		return cache.Save()
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheServeCmd)
	cacheCmd.AddCommand(cacheForgetCmd)

	cacheCmd.PersistentFlags().StringVar(
		&cacheFile,
		"cache",
		geolocator.DefaultCacheFile,
		"Cache file; a .duckdb extension selects the DuckDB store",
	)
	cacheStatsCmd.Flags().IntVar(&coverageAt, "res", 4, "H3 resolution of the coverage table")
	cacheStatsCmd.Flags().IntVar(&coverageN, "top", 10, "Number of cells to show")
	cacheServeCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "Address to listen on")
}
