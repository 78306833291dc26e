// Copyright 2026 The Geolocator Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"

	"github.com/uber/h3-go/v4"
)

// ErrInvalidBounds is returned when a viewport's corners are inverted.
var ErrInvalidBounds = errors.New("spatial: invalid bounds")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Scan implements the sql.Scanner interface for database deserialization.
// DuckDB returns STRUCT(x DOUBLE, y DOUBLE) columns as maps.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("converting %s to h3 cell at res %d: %w", p, res, err)
	}

	return cell, nil
}

// Bounds is a rectangular viewport given by its northeast and southwest corners.
type Bounds struct {
	NorthEast Point `json:"northeast"`
	SouthWest Point `json:"southwest"`
}

// Validate checks that the northeast corner is not south of the southwest one.
// Longitudes are not compared since a viewport may cross the antimeridian.
func (b Bounds) Validate() error {
	if b.NorthEast.Lat < b.SouthWest.Lat {
		return fmt.Errorf("%w: northeast latitude %g is south of southwest latitude %g",
			ErrInvalidBounds, b.NorthEast.Lat, b.SouthWest.Lat)
	}

	for _, c := range []Point{b.NorthEast, b.SouthWest} {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBounds, err)
		}
	}

	return nil
}

// Validate checks that the point lies within global coordinate limits.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got %f)", p.Lat)
	}

	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got %f)", p.Lng)
	}

	return nil
}
