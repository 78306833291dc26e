// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jcodagnone/csvgeo/spatial"
)

const (
	fallbackWarning     = "WARNING: Using fallbacks, loss of fidelity!"
	noResultWarning     = "No result found for '%s'; "
	searchFailedWarning = "Search Failed!;"
)

// SearchOptions are the per-run search settings.
type SearchOptions struct {
	// Depth is the maximum number of snippets combined in one candidate
	Depth int

	// Region biases results towards a region code
	Region string

	// Viewport biases results towards an area
	Viewport *spatial.Bounds
}

// Bias returns the provider bias for these options.
func (o SearchOptions) Bias() Bias {
	return Bias{Region: o.Region, Viewport: o.Viewport}
}

// Warnings accumulates the diagnostics of one resolution.
type Warnings struct {
	fallback bool
	messages []string
}

// Fallback reports whether the least specific candidates were reached.
func (w *Warnings) Fallback() bool {
	return w.fallback
}

// Messages returns the diagnostics other than the fallback warning.
func (w *Warnings) Messages() []string {
	return w.messages
}

func (w *Warnings) add(format string, args ...any) {
	w.messages = append(w.messages, fmt.Sprintf(format, args...))
}

// String renders the warnings as one string, fallback warning first. Each
// message carries its own terminator. It is empty when nothing went wrong.
func (w *Warnings) String() string {
	var sb strings.Builder

	if w.fallback {
		sb.WriteString(fallbackWarning)
	}

	for _, m := range w.messages {
		sb.WriteString(m)
	}

	return sb.String()
}

// Resolution is the outcome of resolving one row.
type Resolution struct {
	// Point is nil when no candidate resolved
	Point    *spatial.Point
	Warnings Warnings
}

// Resolved reports whether a point was found.
func (r Resolution) Resolved() bool {
	return r.Point != nil
}

// EngineMetrics tracks what the engine did during a run.
type EngineMetrics struct {
	Rows            int
	Resolved        int
	Unresolved      int
	Fallbacks       int
	CacheHits       int
	KnownFailures   int
	ProviderQueries int
	ProviderMisses  int
}

// Engine resolves rows of snippets to points, trying candidates in priority
// order against the cache first and the provider second.
type Engine struct {
	provider Provider
	cache    *Cache
	options  SearchOptions
	Verbose  bool
	Metrics  EngineMetrics
}

// NewEngine creates an engine. The cache is mutated in place.
func NewEngine(provider Provider, cache *Cache, options SearchOptions) *Engine {
	return &Engine{
		provider: provider,
		cache:    cache,
		options:  options,
	}
}

// Resolve resolves the snippets of one row.
func (e *Engine) Resolve(ctx context.Context, snippets []string) (Resolution, error) {
	return e.ResolveCandidates(ctx, Candidates(snippets, e.options.Depth), len(snippets))
}

// ResolveCandidates tries candidates in order, for a row of snippetCount
// snippets. Only provider failures are returned as errors; an address that
// cannot be resolved is a Resolution without Point.
func (e *Engine) ResolveCandidates(ctx context.Context, candidates []string, snippetCount int) (Resolution, error) {
	var res Resolution

	e.Metrics.Rows++
	threshold := fallbackThreshold(snippetCount)

	for i, candidate := range candidates {
		if i >= threshold && !res.Warnings.fallback {
			res.Warnings.fallback = true
			e.Metrics.Fallbacks++
		}

		p, status := e.cache.Lookup(candidate)

		if e.Verbose {
			log.Printf("🔎 %q (%s)", candidate, status)
		}

		switch status {
		case Hit:
			e.Metrics.CacheHits++

			return e.resolved(res, p), nil
		case KnownFailure:
			e.Metrics.KnownFailures++

			continue
		case Miss:
		}

		e.Metrics.ProviderQueries++

		results, err := e.provider.Geocode(ctx, candidate, e.options.Bias())
		if err != nil {
			return res, fmt.Errorf("geocoding %q: %w", candidate, err)
		}

		if len(results) > 0 {
			location := results[0].Location
			e.cache.RecordSuccess(candidate, location)

			return e.resolved(res, location), nil
		}

		e.Metrics.ProviderMisses++
		res.Warnings.add(noResultWarning, candidate)
		e.cache.RecordFailure(candidate)
	}

	res.Warnings.add(searchFailedWarning)
	if len(candidates) > 0 {
		e.cache.RecordFailure(candidates[len(candidates)-1])
	}

	e.Metrics.Unresolved++

	return res, nil
}

func (e *Engine) resolved(res Resolution, p spatial.Point) Resolution {
	e.Metrics.Resolved++
	res.Point = &p

	return res
}
