// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/csvgeo/spatial"
)

// H3 resolutions stored next to every resolved address: roughly a region
// and a neighbourhood.
const (
	coarseCellRes = 4
	fineCellRes   = 8
)

// DuckDBStore keeps the cache in two DuckDB tables, discovered_addrs and
// no_result_list, mirroring the JSON layout.
type DuckDBStore struct {
	db     *sql.DB
	closer bool
}

// NewDuckDBStore creates a store over an already open database. Close does
// not close db.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// OpenDuckDBStore opens (or creates) the database at path and its schema.
func OpenDuckDBStore(path string) (*DuckDBStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &DuckDBStore{db: db, closer: true}
	if err := s.CreateSchema(); err != nil {
		db.Close()

		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return s, nil
}

// CreateSchema creates the cache tables if needed.
func (s *DuckDBStore) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS discovered_addrs (
			address VARCHAR NOT NULL,
			point STRUCT(x DOUBLE, y DOUBLE) NOT NULL,
			h3_res4 BIGINT,
			h3_res8 BIGINT
		);

		CREATE TABLE IF NOT EXISTS no_result_list (
			address VARCHAR NOT NULL
		);
	`)

	return err
}

// Load reads both tables.
func (s *DuckDBStore) Load() (*CacheSnapshot, error) {
	snapshot := &CacheSnapshot{Resolved: make(map[string]spatial.Point)}

	rows, err := s.db.Query(`SELECT address, point FROM discovered_addrs`)
	if err != nil {
		return nil, fmt.Errorf("querying discovered addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			addr string
			p    spatial.Point
		)

		if err := rows.Scan(&addr, &p); err != nil {
			return nil, fmt.Errorf("scanning discovered address: %w", err)
		}

		snapshot.Resolved[addr] = p
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	failedRows, err := s.db.Query(`SELECT address FROM no_result_list ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("querying failed addresses: %w", err)
	}
	defer failedRows.Close()

	for failedRows.Next() {
		var addr string
		if err := failedRows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scanning failed address: %w", err)
		}

		snapshot.Failed = append(snapshot.Failed, addr)
	}

	return snapshot, failedRows.Err()
}

// Save replaces the content of both tables in a single transaction.
func (s *DuckDBStore) Save(snapshot *CacheSnapshot) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rErr)
			}
		}
	}()

	if _, err = tx.Exec(`DELETE FROM discovered_addrs`); err != nil {
		return fmt.Errorf("clearing discovered addresses: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM no_result_list`); err != nil {
		return fmt.Errorf("clearing failed addresses: %w", err)
	}

	resolvedStmt, err := tx.Prepare(`
		INSERT INTO discovered_addrs (address, point, h3_res4, h3_res8)
		VALUES (?, {'x': ?::DOUBLE, 'y': ?::DOUBLE}, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer resolvedStmt.Close()

	for addr, p := range snapshot.Resolved {
		coarse, fine := cellsOf(p)
		if _, err = resolvedStmt.Exec(addr, p.Lng, p.Lat, coarse, fine); err != nil {
			return fmt.Errorf("inserting %q: %w", addr, err)
		}
	}

	failedStmt, err := tx.Prepare(`INSERT INTO no_result_list (address) VALUES (?)`)
	if err != nil {
		return err
	}
	defer failedStmt.Close()

	for _, addr := range snapshot.Failed {
		if _, err = failedStmt.Exec(addr); err != nil {
			return fmt.Errorf("inserting %q: %w", addr, err)
		}
	}

	return tx.Commit()
}

// cellsOf returns the coarse and fine H3 cells of p, or NULLs when p cannot
// be indexed.
func cellsOf(p spatial.Point) (sql.NullInt64, sql.NullInt64) {
	var coarse, fine sql.NullInt64

	if cell, err := p.Cell(coarseCellRes); err == nil {
		coarse = sql.NullInt64{Int64: int64(cell), Valid: true}
	}

	if cell, err := p.Cell(fineCellRes); err == nil {
		fine = sql.NullInt64{Int64: int64(cell), Valid: true}
	}

	return coarse, fine
}

// DB returns the underlying database connection.
func (s *DuckDBStore) DB() *sql.DB {
	return s.db
}

// Close closes the database if the store opened it.
func (s *DuckDBStore) Close() error {
	if !s.closer {
		return nil
	}

	return s.db.Close()
}
