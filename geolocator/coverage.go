// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"cmp"
	"slices"

	"github.com/uber/h3-go/v4"
)

// CellCount is the number of resolved addresses falling in an H3 cell.
type CellCount struct {
	Cell  string  `json:"cell"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}

// Coverage groups the resolved addresses by H3 cell at res, most populated
// cells first. Points that cannot be indexed are skipped.
func (c *Cache) Coverage(res int) []CellCount {
	counts := make(map[h3.Cell]int)

	for _, p := range c.resolved {
		cell, err := p.Cell(res)
		if err != nil {
			continue
		}

		counts[cell]++
	}

	coverage := make([]CellCount, 0, len(counts))

	for cell, n := range counts {
		center, err := cell.LatLng()
		if err != nil {
			continue
		}

		coverage = append(coverage, CellCount{
			Cell:  cell.String(),
			Lat:   center.Lat,
			Lng:   center.Lng,
			Count: n,
		})
	}

	slices.SortFunc(coverage, func(a, b CellCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}

		return cmp.Compare(a.Cell, b.Cell)
	})

	return coverage
}
