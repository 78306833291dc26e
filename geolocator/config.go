// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcodagnone/csvgeo/spatial"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config is the content of a run configuration file.
type Config struct {
	APIKey            string        `json:"api_key"                 yaml:"api_key"`
	ColumnSearchOrder []string      `json:"csv_column_search_order" yaml:"csv_column_search_order"`
	SearchDepth       int           `json:"search_depth"            yaml:"search_depth"`
	SearchTLD         string        `json:"search_tld,omitempty"    yaml:"search_tld,omitempty"`
	SearchBounds      *SearchBounds `json:"search_bounds,omitempty" yaml:"search_bounds,omitempty"`
	EmptyMarkers      []string      `json:"empty_markers,omitempty" yaml:"empty_markers,omitempty"`
}

// SearchBounds holds the viewport as [northeast, southwest] pairs.
type SearchBounds struct {
	Latitude  []float64 `json:"latitude"  yaml:"latitude"`
	Longitude []float64 `json:"longitude" yaml:"longitude"`
}

// LoadConfig reads and validates the configuration file at path. Files
// ending in .json are decoded as JSON, anything else as YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return ParseConfig(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// ParseConfig decodes and validates a configuration document.
func ParseConfig(data []byte, isJSON bool) (*Config, error) {
	var cfg Config

	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings needed to start a run. The API key may be
// empty here; it can still come from the environment.
func (c *Config) Validate() error {
	if len(c.ColumnSearchOrder) == 0 {
		return fmt.Errorf("%w: csv_column_search_order must list at least one column", ErrInvalidConfig)
	}

	for _, column := range c.ColumnSearchOrder {
		if column == "" {
			return fmt.Errorf("%w: csv_column_search_order contains an empty column name", ErrInvalidConfig)
		}
	}

	if c.SearchDepth < 1 {
		return fmt.Errorf("%w: search_depth must be at least 1, got %d", ErrInvalidConfig, c.SearchDepth)
	}

	if c.SearchBounds != nil {
		if _, err := c.SearchBounds.Bounds(); err != nil {
			return fmt.Errorf("%w: search_bounds: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// Bounds converts the [northeast, southwest] pairs into a viewport.
func (b *SearchBounds) Bounds() (*spatial.Bounds, error) {
	if len(b.Latitude) != 2 || len(b.Longitude) != 2 {
		return nil, fmt.Errorf("latitude and longitude need exactly two values, got %d and %d",
			len(b.Latitude), len(b.Longitude))
	}

	bounds := &spatial.Bounds{
		NorthEast: spatial.Point{Lat: b.Latitude[0], Lng: b.Longitude[0]},
		SouthWest: spatial.Point{Lat: b.Latitude[1], Lng: b.Longitude[1]},
	}

	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	return bounds, nil
}

// SearchOptions returns the engine settings of the configuration.
func (c *Config) SearchOptions() SearchOptions {
	opts := SearchOptions{Depth: c.SearchDepth}

	if c.SearchTLD != "" {
		region := strings.ToLower(strings.TrimSpace(c.SearchTLD))
		if _, err := language.ParseRegion(region); err != nil {
			log.Printf("⚠️ search_tld %q is not a known region code, passing it as is", c.SearchTLD)
		}

		opts.Region = region
	}

	if c.SearchBounds != nil {
		// validated by LoadConfig
		opts.Viewport, _ = c.SearchBounds.Bounds()
	}

	return opts
}

// Extractor returns the snippet extractor of the configuration.
func (c *Config) Extractor() *SnippetExtractor {
	return NewSnippetExtractor(c.ColumnSearchOrder, c.EmptyMarkers)
}
