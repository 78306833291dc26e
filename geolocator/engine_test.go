// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/csvgeo/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider answers from a fixed table and records every query.
type fakeProvider struct {
	results map[string]spatial.Point
	errs    map[string]error
	queries []string
	biases  []Bias
}

func newFakeProvider(results map[string]spatial.Point) *fakeProvider {
	return &fakeProvider{results: results, errs: map[string]error{}}
}

func (f *fakeProvider) Geocode(_ context.Context, query string, bias Bias) ([]Result, error) {
	f.queries = append(f.queries, query)
	f.biases = append(f.biases, bias)

	if err, ok := f.errs[query]; ok {
		return nil, err
	}

	if p, ok := f.results[query]; ok {
		return []Result{{Location: p}, {Location: spatial.Point{Lat: -1, Lng: -1}}}, nil
	}

	return nil, nil
}

func TestEngine_FirstResolvingCandidateWins(t *testing.T) {
	provider := newFakeProvider(map[string]spatial.Point{"a, b": paris, "b": {Lat: 1, Lng: 1}})
	cache := NewCache()
	engine := NewEngine(provider, cache, SearchOptions{Depth: 3})

	res, err := engine.Resolve(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	require.True(t, res.Resolved())
	assert.Equal(t, paris, *res.Point, "only the first returned location is used")
	assert.Equal(t, []string{"a", "a, b"}, provider.queries)
	assert.False(t, res.Warnings.Fallback())
	assert.Equal(t, "No result found for 'a'; ", res.Warnings.String())

	p, status := cache.Lookup("a, b")
	assert.Equal(t, Hit, status)
	assert.Equal(t, paris, p)

	_, status = cache.Lookup("a")
	assert.Equal(t, KnownFailure, status)
}

func TestEngine_CacheIdempotence(t *testing.T) {
	t.Run("within a run", func(t *testing.T) {
		provider := newFakeProvider(map[string]spatial.Point{"paris, france": paris})
		engine := NewEngine(provider, NewCache(), SearchOptions{Depth: 2})

		first, err := engine.Resolve(context.Background(), []string{"paris", "france"})
		require.NoError(t, err)

		second, err := engine.Resolve(context.Background(), []string{"paris", "france"})
		require.NoError(t, err)

		assert.Equal(t, []string{"paris", "paris, france"}, provider.queries)
		assert.Equal(t, *first.Point, *second.Point)
		assert.Empty(t, second.Warnings.String())
		assert.Equal(t, 1, engine.Metrics.CacheHits)
		assert.Equal(t, 1, engine.Metrics.KnownFailures)
	})

	t.Run("across runs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")

		provider := newFakeProvider(map[string]spatial.Point{"paris": paris})
		cache := LoadCache(NewJSONFileStore(path))
		_, err := NewEngine(provider, cache, SearchOptions{Depth: 1}).Resolve(context.Background(), []string{"paris"})
		require.NoError(t, err)
		require.NoError(t, cache.Save())

		provider = newFakeProvider(nil)
		cache = LoadCache(NewJSONFileStore(path))
		res, err := NewEngine(provider, cache, SearchOptions{Depth: 1}).Resolve(context.Background(), []string{"paris"})
		require.NoError(t, err)

		assert.Empty(t, provider.queries)
		require.True(t, res.Resolved())
		assert.Equal(t, paris, *res.Point)
	})
}

func TestEngine_NegativeCacheSkip(t *testing.T) {
	provider := newFakeProvider(map[string]spatial.Point{"a, b": paris, "a, c": {Lat: 2, Lng: 2}})
	cache := NewCache()
	cache.RecordFailure("a")
	cache.RecordFailure("a, b")

	engine := NewEngine(provider, cache, SearchOptions{Depth: 3})

	res, err := engine.Resolve(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a, c"}, provider.queries)
	assert.Equal(t, spatial.Point{Lat: 2, Lng: 2}, *res.Point)
	assert.NotContains(t, res.Warnings.String(), "No result found")
	assert.Equal(t, 2, engine.Metrics.KnownFailures)
}

func TestEngine_Exhaustion(t *testing.T) {
	provider := newFakeProvider(nil)
	cache := NewCache()
	engine := NewEngine(provider, cache, SearchOptions{Depth: 1})

	res, err := engine.Resolve(context.Background(), []string{"x"})
	require.NoError(t, err)

	assert.False(t, res.Resolved())
	assert.Contains(t, res.Warnings.String(), "Search Failed!;")
	assert.Equal(t, "No result found for 'x'; Search Failed!;", res.Warnings.String())

	_, status := cache.Lookup("x")
	assert.Equal(t, KnownFailure, status)
	assert.Equal(t, CacheStats{Failed: 1}, cache.Stats())
	assert.Equal(t, EngineMetrics{Rows: 1, Unresolved: 1, ProviderQueries: 1, ProviderMisses: 1}, engine.Metrics)
}

func TestEngine_ExhaustionOverKnownFailures(t *testing.T) {
	provider := newFakeProvider(nil)
	cache := NewCache()
	cache.RecordFailure("a")
	cache.RecordFailure("a, b")
	cache.RecordFailure("b")

	res, err := NewEngine(provider, cache, SearchOptions{Depth: 2}).Resolve(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Empty(t, provider.queries)
	assert.False(t, res.Resolved())
	assert.True(t, res.Warnings.Fallback())
	assert.Equal(t, "WARNING: Using fallbacks, loss of fidelity!Search Failed!;", res.Warnings.String())
	assert.Equal(t, CacheStats{Failed: 3}, cache.Stats())
}

func TestEngine_NoCandidates(t *testing.T) {
	provider := newFakeProvider(nil)
	cache := NewCache()

	res, err := NewEngine(provider, cache, SearchOptions{Depth: 3}).Resolve(context.Background(), nil)
	require.NoError(t, err)

	assert.False(t, res.Resolved())
	assert.Equal(t, "Search Failed!;", res.Warnings.String())
	assert.Empty(t, provider.queries)
	assert.Equal(t, CacheStats{}, cache.Stats())
}

func TestEngine_FidelityWarning(t *testing.T) {
	// candidates for [a b c]: a, "a, b", "a, c", "a, b, c", b, "b, c", c
	tests := []struct {
		name         string
		resolvesAt   string
		wantFallback bool
		wantQueries  int
	}{
		{"first candidate", "a", false, 1},
		{"last anchored candidate", "a, b, c", false, 4},
		{"first unanchored candidate", "b", true, 5},
		{"last candidate", "c", true, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider(map[string]spatial.Point{tt.resolvesAt: paris})
			engine := NewEngine(provider, NewCache(), SearchOptions{Depth: 3})

			res, err := engine.Resolve(context.Background(), []string{"a", "b", "c"})
			require.NoError(t, err)
			require.True(t, res.Resolved())

			assert.Equal(t, tt.wantFallback, res.Warnings.Fallback())
			assert.Len(t, provider.queries, tt.wantQueries)

			warnings := res.Warnings.String()
			if tt.wantFallback {
				assert.True(t, strings.HasPrefix(warnings, "WARNING: Using fallbacks, loss of fidelity!"), warnings)
				assert.Equal(t, 1, strings.Count(warnings, "loss of fidelity"))
			} else {
				assert.NotContains(t, warnings, "loss of fidelity")
			}

			assert.Len(t, res.Warnings.Messages(), tt.wantQueries-1)
		})
	}
}

func TestEngine_ProviderFailure(t *testing.T) {
	provider := newFakeProvider(nil)
	provider.errs["a, b"] = &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota exceeded"}

	cache := NewCache()
	engine := NewEngine(provider, cache, SearchOptions{Depth: 2})

	_, err := engine.Resolve(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.True(t, IsQuotaExceededError(err))

	_, status := cache.Lookup("a")
	assert.Equal(t, KnownFailure, status, "failures seen before the error are kept")

	_, status = cache.Lookup("a, b")
	assert.Equal(t, Miss, status, "a provider error is not a negative result")
}

func TestEngine_BiasForwarded(t *testing.T) {
	viewport := &spatial.Bounds{
		NorthEast: spatial.Point{Lat: 56, Lng: 40},
		SouthWest: spatial.Point{Lat: 52, Lng: 30},
	}
	provider := newFakeProvider(nil)
	engine := NewEngine(provider, NewCache(), SearchOptions{Depth: 1, Region: "ru", Viewport: viewport})

	_, err := engine.Resolve(context.Background(), []string{"fokino", "orjol"})
	require.NoError(t, err)

	want := []Bias{{Region: "ru", Viewport: viewport}, {Region: "ru", Viewport: viewport}}
	if diff := cmp.Diff(want, provider.biases); diff != "" {
		t.Errorf("biases mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ResolveCandidates(t *testing.T) {
	provider := newFakeProvider(map[string]spatial.Point{"z": paris})
	engine := NewEngine(provider, NewCache(), SearchOptions{Depth: 1})

	// a row of 1 snippet has a threshold of 1: the second candidate is a fallback
	res, err := engine.ResolveCandidates(context.Background(), []string{"y", "z"}, 1)
	require.NoError(t, err)

	assert.True(t, res.Warnings.Fallback())
	assert.Equal(t, "WARNING: Using fallbacks, loss of fidelity!No result found for 'y'; ", res.Warnings.String())
}
