// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/csvgeo/geolocator/utils"
	"github.com/jcodagnone/csvgeo/spatial"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// CacheServer exposes a cache read-only over HTTP.
type CacheServer struct {
	cache *Cache
}

// NewCacheServer creates a server over cache. The cache must not be mutated
// while the server runs.
func NewCacheServer(cache *Cache) *CacheServer {
	return &CacheServer{cache: cache}
}

// Router returns the HTTP routes of the server.
func (s *CacheServer) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/cache/stats", s.getStats)
	r.GET("/api/cache/resolved", s.listResolved)
	r.GET("/api/cache/failed", s.listFailed)
	r.GET("/api/cache/lookup", s.lookup)
	r.GET("/api/cache/coverage", s.getCoverage)

	return r
}

// Run serves until the listener fails.
func (s *CacheServer) Run(addr string) error {
	return s.Router().Run(addr)
}

type resolvedEntry struct {
	Address string        `json:"address"`
	Point   spatial.Point `json:"point"`
}

type page[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

func (s *CacheServer) getStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.cache.Stats())
}

func (s *CacheServer) listResolved(ctx *gin.Context) {
	limit, offset, ok := pagination(ctx)
	if !ok {
		return
	}

	addrs := s.cache.ResolvedAddresses(utils.Lower(ctx.Query("q")))
	total := len(addrs)
	addrs = paginate(addrs, limit, offset)

	items := make([]resolvedEntry, 0, len(addrs))
	for _, addr := range addrs {
		p, _ := s.cache.Lookup(addr)
		items = append(items, resolvedEntry{Address: addr, Point: p})
	}

	ctx.JSON(http.StatusOK, page[resolvedEntry]{Total: total, Items: items})
}

func (s *CacheServer) listFailed(ctx *gin.Context) {
	limit, offset, ok := pagination(ctx)
	if !ok {
		return
	}

	addrs := s.cache.FailedAddresses(utils.Lower(ctx.Query("q")))

	ctx.JSON(http.StatusOK, page[string]{Total: len(addrs), Items: paginate(addrs, limit, offset)})
}

func (s *CacheServer) lookup(ctx *gin.Context) {
	address := utils.Lower(ctx.Query("address"))
	if address == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter is required"})

		return
	}

	p, status := s.cache.Lookup(address)

	resp := gin.H{"address": address, "status": status.String()}
	if status == Hit {
		resp["point"] = p
	}

	ctx.JSON(http.StatusOK, resp)
}

func (s *CacheServer) getCoverage(ctx *gin.Context) {
	res := coarseCellRes

	if resParam := ctx.Query("res"); resParam != "" {
		var err error

		res, err = strconv.Atoi(resParam)
		if err != nil || res < 0 || res > 15 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "res must be an H3 resolution between 0 and 15"})

			return
		}
	}

	ctx.JSON(http.StatusOK, s.cache.Coverage(res))
}

func pagination(ctx *gin.Context) (limit, offset int, ok bool) {
	limit, offset = defaultPageSize, 0

	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})

			return 0, 0, false
		}

		limit = min(n, maxPageSize)
	}

	if v := ctx.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset parameter"})

			return 0, 0, false
		}

		offset = n
	}

	return limit, offset, true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}

	return items[offset:min(offset+limit, len(items))]
}
