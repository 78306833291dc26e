// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/jcodagnone/csvgeo/spatial"
)

// LookupStatus is the outcome of a cache lookup.
type LookupStatus int

const (
	// Miss means the address was never queried.
	Miss LookupStatus = iota
	// Hit means the address resolved before.
	Hit
	// KnownFailure means the provider had no result for the address.
	KnownFailure
)

func (s LookupStatus) String() string {
	switch s {
	case Hit:
		return "hit"
	case KnownFailure:
		return "known failure"
	default:
		return "miss"
	}
}

// CacheSnapshot is the persisted content of a Cache.
type CacheSnapshot struct {
	Resolved map[string]spatial.Point
	Failed   []string
}

// CacheStore persists cache snapshots.
type CacheStore interface {
	// Load returns the last saved snapshot
	Load() (*CacheSnapshot, error)

	// Save replaces the stored snapshot
	Save(snapshot *CacheSnapshot) error

	// Close releases the underlying resources
	Close() error
}

// CacheStats summarizes the content of a Cache.
type CacheStats struct {
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
}

// Cache remembers which composite addresses resolved, and to where, and which
// ones the provider had nothing for. It is not safe for concurrent mutation.
type Cache struct {
	store    CacheStore
	resolved map[string]spatial.Point
	failed   map[string]struct{}
}

// NewCache creates an empty cache that is not backed by any store.
func NewCache() *Cache {
	return &Cache{
		resolved: make(map[string]spatial.Point),
		failed:   make(map[string]struct{}),
	}
}

// LoadCache restores a cache from store. It never fails: a missing or
// unreadable store yields an empty cache.
func LoadCache(store CacheStore) *Cache {
	c := NewCache()
	c.store = store

	snapshot, err := store.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️  Ignoring unreadable cache, starting empty: %v", err)
		}

		return c
	}

	c.restore(snapshot)

	return c
}

func (c *Cache) restore(snapshot *CacheSnapshot) {
	for addr, p := range snapshot.Resolved {
		c.resolved[addr] = p
	}

	for _, addr := range snapshot.Failed {
		if _, ok := c.resolved[addr]; !ok {
			c.failed[addr] = struct{}{}
		}
	}
}

// Lookup returns the cached status of addr, and its point on a Hit.
func (c *Cache) Lookup(addr string) (spatial.Point, LookupStatus) {
	if p, ok := c.resolved[addr]; ok {
		return p, Hit
	}

	if _, ok := c.failed[addr]; ok {
		return spatial.Point{}, KnownFailure
	}

	return spatial.Point{}, Miss
}

// RecordSuccess stores the point addr resolved to.
func (c *Cache) RecordSuccess(addr string, p spatial.Point) {
	delete(c.failed, addr)
	c.resolved[addr] = p
}

// RecordFailure marks addr as having no result. Resolved addresses are left
// untouched.
func (c *Cache) RecordFailure(addr string) {
	if _, ok := c.resolved[addr]; ok {
		return
	}

	c.failed[addr] = struct{}{}
}

// Forget removes addr from both sides of the cache and reports whether it
// was present.
func (c *Cache) Forget(addr string) bool {
	_, resolved := c.resolved[addr]
	_, failed := c.failed[addr]

	delete(c.resolved, addr)
	delete(c.failed, addr)

	return resolved || failed
}

// Stats returns the number of entries on each side.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Resolved: len(c.resolved), Failed: len(c.failed)}
}

// Snapshot returns a copy of the cache content. Failed addresses are sorted
// to keep saved files stable.
func (c *Cache) Snapshot() *CacheSnapshot {
	resolved := make(map[string]spatial.Point, len(c.resolved))
	for addr, p := range c.resolved {
		resolved[addr] = p
	}

	failed := make([]string, 0, len(c.failed))
	for addr := range c.failed {
		failed = append(failed, addr)
	}

	slices.Sort(failed)

	return &CacheSnapshot{Resolved: resolved, Failed: failed}
}

// ResolvedAddresses returns the resolved addresses containing substr, sorted.
func (c *Cache) ResolvedAddresses(substr string) []string {
	addrs := make([]string, 0, len(c.resolved))

	for addr := range c.resolved {
		if strings.Contains(addr, substr) {
			addrs = append(addrs, addr)
		}
	}

	slices.Sort(addrs)

	return addrs
}

// FailedAddresses returns the failed addresses containing substr, sorted.
func (c *Cache) FailedAddresses(substr string) []string {
	addrs := make([]string, 0, len(c.failed))

	for addr := range c.failed {
		if strings.Contains(addr, substr) {
			addrs = append(addrs, addr)
		}
	}

	slices.Sort(addrs)

	return addrs
}

// Save persists the cache to the store it was loaded from.
func (c *Cache) Save() error {
	if c.store == nil {
		return errors.New("cache has no store")
	}

	if err := c.store.Save(c.Snapshot()); err != nil {
		return fmt.Errorf("saving cache: %w", err)
	}

	return nil
}
