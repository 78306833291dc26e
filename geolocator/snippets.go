// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"strings"

	"github.com/jcodagnone/csvgeo/geolocator/utils"
)

// DefaultEmptyMarkers are the cell values meaning "no information".
var DefaultEmptyMarkers = []string{"-", " ", ""}

// Row is one input record, keyed by column name.
type Row map[string]string

// SnippetExtractor turns the configured columns of a row into address
// snippets, preserving the column order.
type SnippetExtractor struct {
	columns []string
	empty   map[string]struct{}
}

// NewSnippetExtractor creates an extractor for the given column order. A nil
// emptyMarkers uses DefaultEmptyMarkers.
func NewSnippetExtractor(columns []string, emptyMarkers []string) *SnippetExtractor {
	if emptyMarkers == nil {
		emptyMarkers = DefaultEmptyMarkers
	}

	empty := make(map[string]struct{}, len(emptyMarkers))
	for _, m := range emptyMarkers {
		empty[m] = struct{}{}
	}

	return &SnippetExtractor{columns: columns, empty: empty}
}

// Columns returns the search columns in priority order.
func (e *SnippetExtractor) Columns() []string {
	return e.columns
}

// Extract returns the normalized non-empty snippets of row. An empty result
// is valid and means the row carries no usable address.
func (e *SnippetExtractor) Extract(row Row) ([]string, error) {
	snippets := make([]string, 0, len(e.columns))

	for _, column := range e.columns {
		raw, ok := row[column]
		if !ok {
			return nil, &MissingColumnError{Column: column}
		}

		value := strings.TrimSpace(raw)
		if _, isEmpty := e.empty[value]; isEmpty {
			continue
		}

		snippets = append(snippets, utils.Lower(value))
	}

	return snippets, nil
}
