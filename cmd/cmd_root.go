// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every candidate tried")
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "csvgeo",
	Short: "geolocate the rows of a CSV file",
	Long: `
csvgeo adds latitude and longitude columns to a CSV file by combining the
locality columns of each row into addresses and geocoding them with Google
Maps, remembering every answer in a local cache.
`,
	SilenceUsage: true,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
