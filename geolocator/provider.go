// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"

	"github.com/jcodagnone/csvgeo/spatial"
)

// Bias nudges a provider towards a region without restricting results to it.
type Bias struct {
	// Region is a region code, usually a ccTLD such as "ru" or "uy"
	Region string

	// Viewport is the area results should preferably fall in
	Viewport *spatial.Bounds
}

// Result is a single geocoding match.
type Result struct {
	Location         spatial.Point
	FormattedAddress string
}

// Provider geocodes free-text addresses.
type Provider interface {
	// Geocode returns the matches for query, best first. No match is an
	// empty slice and a nil error.
	Geocode(ctx context.Context, query string, bias Bias) ([]Result, error)
}
