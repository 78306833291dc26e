// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"

	"github.com/jcodagnone/csvgeo/geolocator/utils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Output columns appended to every row.
const (
	LatColumn      = "lat"
	LngColumn      = "lng"
	WarningsColumn = "warnings"

	// UnknownCoordinate replaces lat and lng of unresolved rows.
	UnknownCoordinate = "-"
)

// Pipeline geolocates every row of a CSV file.
type Pipeline struct {
	extractor *SnippetExtractor
	engine    *Engine

	// ShowProgress draws a progress bar when stderr is a terminal
	ShowProgress bool
}

// NewPipeline creates a pipeline.
func NewPipeline(extractor *SnippetExtractor, engine *Engine) *Pipeline {
	return &Pipeline{extractor: extractor, engine: engine}
}

// Run streams rows from in to out with the lat, lng and warnings columns
// appended, in input order. It stops at the first row it cannot read or
// process; rows already written stay written.
func (p *Pipeline) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("input has no header")
	}

	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	for _, column := range p.extractor.Columns() {
		if !slices.Contains(header, column) {
			return &MissingColumnError{Column: column, Line: 1}
		}
	}

	writer := csv.NewWriter(out)
	outHeader := append(append([]string{}, header...), LatColumn, LngColumn, WarningsColumn)

	if err := writer.Write(outHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	var bar *progressbar.ProgressBar
	if p.ShowProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		// rows are streamed, the total is unknown
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Geolocating"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("reading line %d: %w", line, err)
		}

		row := make(Row, len(header))
		// extra fields past the header are dropped, missing ones stay absent
		for j, column := range header {
			if j < len(record) {
				row[column] = record[j]
			}
		}

		outRecord, err := p.processRow(ctx, header, row)
		if err != nil {
			var mc *MissingColumnError
			if errors.As(err, &mc) {
				mc.Line = line

				return mc
			}

			return fmt.Errorf("line %d: %w", line, err)
		}

		if err := writer.Write(outRecord); err != nil {
			return fmt.Errorf("writing line %d: %w", line, err)
		}

		writer.Flush()

		if bar == nil {
			if p.ShowProgress {
				log.Printf("Geolocated line %s", utils.FormatInt(int64(line)))
			}
		} else if err := bar.Add(1); err != nil {
			return fmt.Errorf("updating progress bar: %w", err)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	writer.Flush()

	return writer.Error()
}

func (p *Pipeline) processRow(ctx context.Context, header []string, row Row) ([]string, error) {
	snippets, err := p.extractor.Extract(row)
	if err != nil {
		return nil, err
	}

	res, err := p.engine.Resolve(ctx, snippets)
	if err != nil {
		return nil, err
	}

	lat, lng := UnknownCoordinate, UnknownCoordinate
	if res.Point != nil {
		lat = utils.FormatCoordinate(res.Point.Lat)
		lng = utils.FormatCoordinate(res.Point.Lng)
	}

	out := make([]string, 0, len(header)+3)
	for _, column := range header {
		out = append(out, row[column])
	}

	return append(out, lat, lng, res.Warnings.String()), nil
}
