// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcodagnone/csvgeo/spatial"
)

// DefaultCacheFile is where the cache lives unless told otherwise.
const DefaultCacheFile = "cache.json"

// OpenCacheStore opens the store for path: a DuckDB database for ".duckdb"
// files, a JSON file otherwise.
//
// An existing database that cannot be opened is moved aside to
// path + ".corrupt" and replaced by an empty one, as LoadCache does for an
// unreadable JSON file.
func OpenCacheStore(path string) (CacheStore, error) {
	if !strings.EqualFold(filepath.Ext(path), ".duckdb") {
		return NewJSONFileStore(path), nil
	}

	store, err := OpenDuckDBStore(path)
	if err == nil {
		return store, nil
	}

	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}

	log.Printf("⚠️  Ignoring unreadable cache, starting empty: %v", err)

	aside := path + ".corrupt"
	if rErr := os.Rename(path, aside); rErr != nil {
		return nil, fmt.Errorf("moving unreadable cache aside: %w", rErr)
	}

	// a write-ahead log belongs to the database it was moved with
	if rErr := os.Rename(path+".wal", aside+".wal"); rErr != nil && !errors.Is(rErr, os.ErrNotExist) {
		return nil, fmt.Errorf("moving unreadable cache aside: %w", rErr)
	}

	log.Printf("🗃️ Previous cache kept at %s", aside)

	return OpenDuckDBStore(path)
}

// jsonCache is the on-disk layout of the cache file.
type jsonCache struct {
	DiscoveredAddrs map[string][2]float64 `json:"discovered_addrs"`
	NoResultList    []string              `json:"no_result_list"`
}

// JSONFileStore keeps the cache in a single JSON document.
type JSONFileStore struct {
	path string
}

// NewJSONFileStore creates a store backed by the file at path. The file is
// created on the first Save.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Path returns the file backing the store.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads the cache file.
func (s *JSONFileStore) Load() (*CacheSnapshot, error) {
	data, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var doc jsonCache
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache file %s: %w", s.path, err)
	}

	snapshot := &CacheSnapshot{
		Resolved: make(map[string]spatial.Point, len(doc.DiscoveredAddrs)),
		Failed:   doc.NoResultList,
	}

	for addr, latLng := range doc.DiscoveredAddrs {
		snapshot.Resolved[addr] = spatial.Point{Lat: latLng[0], Lng: latLng[1]}
	}

	return snapshot, nil
}

// Save writes the snapshot, replacing the previous file content.
func (s *JSONFileStore) Save(snapshot *CacheSnapshot) error {
	doc := jsonCache{
		DiscoveredAddrs: make(map[string][2]float64, len(snapshot.Resolved)),
		NoResultList:    snapshot.Failed,
	}

	if doc.NoResultList == nil {
		doc.NoResultList = []string{}
	}

	for addr, p := range snapshot.Resolved {
		doc.DiscoveredAddrs[addr] = [2]float64{p.Lat, p.Lng}
	}

	output, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}

	// an interrupted save must leave the previous file intact
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, output, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}

// Close implements CacheStore.
func (s *JSONFileStore) Close() error {
	return nil
}
