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

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/r1sync/pkg/models"
)

// StartRun appends run to the log.
func (s *Store) StartRun(ctx context.Context, run *models.SyncRun) error {
	counters, err := jsonb(run.RunCounters)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO sync_runs (id, config_id, tenant_id, started, finished, status, summary, message, error, counters)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.ConfigID, run.TenantID, run.Started, run.Finished, string(run.Status),
		run.Summary, run.Message, run.Error, counters)
	if err != nil {
		return fmt.Errorf("start sync run: %w", err)
	}

	return nil
}

// FinishRun stores the final state of a running run.
func (s *Store) FinishRun(ctx context.Context, run *models.SyncRun) error {
	counters, err := jsonb(run.RunCounters)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
UPDATE sync_runs SET finished = $2, status = $3, summary = $4, message = $5, error = $6, counters = $7
WHERE id = $1 AND status = 'running'`,
		run.ID, run.Finished, string(run.Status), run.Summary, run.Message, run.Error, counters)
	if err != nil {
		return fmt.Errorf("finish sync run: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sync_runs WHERE id = $1)`, run.ID).
		Scan(&exists); err != nil {
		return fmt.Errorf("finish sync run: %w", err)
	}

	if exists {
		return models.ErrRunFinalized
	}

	return models.ErrRunNotFound
}

// ListRuns returns the newest runs of a config first. A non-positive limit
// returns all of them.
func (s *Store) ListRuns(ctx context.Context, configID int64, limit int) ([]*models.SyncRun, error) {
	if limit < 0 {
		limit = 0
	}

	rows, err := s.pool.Query(ctx, `
SELECT id, config_id, tenant_id, started, finished, status, summary, message, error, counters
FROM sync_runs
WHERE config_id = $1
ORDER BY started DESC
LIMIT NULLIF($2::int, 0)`, configID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var out []*models.SyncRun

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}

	return out, nil
}

func scanRun(row pgx.Row) (*models.SyncRun, error) {
	var (
		run      models.SyncRun
		status   string
		counters []byte
	)

	err := row.Scan(&run.ID, &run.ConfigID, &run.TenantID, &run.Started, &run.Finished, &status,
		&run.Summary, &run.Message, &run.Error, &counters)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrRunNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("scan sync run: %w", err)
	}

	run.Status = models.RunStatus(status)

	if err := fromJSONB(counters, &run.RunCounters); err != nil {
		return nil, fmt.Errorf("sync run %s: %w", run.ID, err)
	}

	return &run, nil
}
