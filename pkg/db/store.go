/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package db is the PostgreSQL backend: the inventory store, the tenant
// config store and the sync run log.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/logger"
)

// Store implements inventory.Store, sync.ConfigStore and sync.RunLog on one
// pool. Capabilities are resolved when the store is built.
type Store struct {
	pool   *pgxpool.Pool
	caps   inventory.Capabilities
	sql    statements
	logger logger.Logger
}

var _ inventory.Store = (*Store)(nil)

// New wraps pool and detects the schema capabilities.
func New(ctx context.Context, pool *pgxpool.Pool, log logger.Logger) (*Store, error) {
	if pool == nil {
		return nil, errNilPool
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	caps, err := DetectCapabilities(ctx, pool)
	if err != nil {
		return nil, err
	}

	log.Info().
		Bool("mac_objects", caps.MACObjects).
		Bool("device_location", caps.DeviceLocation).
		Bool("vlan_site_scope", caps.VLANSiteScope).
		Bool("wireless_links", caps.WirelessLinks).
		Bool("poe_mode", caps.PoEMode).
		Msg("Resolved inventory schema capabilities")

	return &Store{pool: pool, caps: caps, sql: buildStatements(caps), logger: log.WithComponent("db")}, nil
}

func (s *Store) Capabilities() inventory.Capabilities {
	return s.caps
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// Begin opens a database transaction.
func (s *Store) Begin(ctx context.Context) (inventory.Tx, error) {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	return &tx{q: pgtx, pgtx: pgtx, caps: s.caps, sql: &s.sql}, nil
}

// tx implements inventory.Tx over a pgx transaction.
type tx struct {
	q    querier
	pgtx pgx.Tx
	caps inventory.Capabilities
	sql  *statements
}

func (t *tx) Capabilities() inventory.Capabilities {
	return t.caps
}

func (t *tx) Commit(ctx context.Context) error {
	return t.pgtx.Commit(ctx)
}

// Rollback is a no-op after Commit.
func (t *tx) Rollback(ctx context.Context) error {
	if err := t.pgtx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}

	return nil
}

// insertOrNothing runs an INSERT ... ON CONFLICT DO NOTHING RETURNING id and
// returns the new id, or zero when the natural key already existed.
func insertOrNothing(ctx context.Context, q querier, sql string, args ...any) (int64, error) {
	var id int64

	err := q.QueryRow(ctx, sql, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	return id, err
}

// one maps pgx.ErrNoRows to inventory.ErrNotFound.
func one[T any](v *T, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, inventory.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return v, nil
}

// exec runs a write that must touch exactly one row.
func exec(ctx context.Context, q querier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return inventory.ErrNotFound
	}

	return nil
}
