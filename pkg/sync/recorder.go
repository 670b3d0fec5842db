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

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/metrics"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

const (
	configMessageMaxLen = 2000
	runMessageMaxLen    = 4000
	runErrorMaxLen      = 20000

	failedSummary = "Sync failed"
)

var errRunAlreadyFinished = errors.New("run already finished by this recorder")

// recorder owns the run log entry of one run and the last-run fields of its
// config. It finalizes the run exactly once.
type recorder struct {
	configs ConfigStore
	runs    RunLog
	events  EventPublisher
	logger  logger.Logger
	now     func() time.Time

	cfg  *models.TenantConfig
	run  *models.SyncRun
	done bool
}

func (s *Service) startRun(ctx context.Context, cfg *models.TenantConfig) (*recorder, error) {
	run := models.NewSyncRun(cfg, s.now())

	if err := s.runs.StartRun(ctx, run); err != nil {
		return nil, syncerr.New(syncerr.KindStoreWrite, "start run", err)
	}

	return &recorder{
		configs: s.configs,
		runs:    s.runs,
		events:  s.events,
		logger:  s.logger.WithFields(map[string]interface{}{"run_id": run.ID.String(), "config_id": cfg.ID}),
		now:     s.now,
		cfg:     cfg,
		run:     run,
	}, nil
}

// succeed finalizes the run as SUCCESS with message as summary and message.
func (r *recorder) succeed(ctx context.Context, counters models.RunCounters, message string) error {
	r.run.RunCounters = counters

	return r.finish(ctx, models.RunStatusSuccess, models.LastSyncSuccess,
		identity.Truncate(message, runMessageMaxLen),
		identity.Truncate(message, runMessageMaxLen),
		"",
		identity.Truncate(message, configMessageMaxLen))
}

// fail finalizes the run as FAILED. The config keeps a short message, the
// run keeps the long error.
func (r *recorder) fail(ctx context.Context, counters models.RunCounters, cause error) error {
	r.run.RunCounters = counters
	text := cause.Error()

	metrics.SyncRunErrors.WithLabelValues(syncerr.KindOf(cause).String()).Inc()

	return r.finish(ctx, models.RunStatusFailed, models.LastSyncFailed,
		failedSummary,
		identity.Truncate(text, runMessageMaxLen),
		identity.Truncate(text, runErrorMaxLen),
		identity.Truncate(text, configMessageMaxLen))
}

func (r *recorder) finish(ctx context.Context, status models.RunStatus, cfgStatus models.LastSyncStatus,
	summary, message, errText, cfgMessage string) error {
	if r.done {
		return errRunAlreadyFinished
	}

	r.done = true

	// The run must be finalized even when the run context expired.
	ctx = context.WithoutCancel(ctx)
	now := r.now()

	r.cfg.LastSync = &now
	r.cfg.LastSyncStatus = cfgStatus
	r.cfg.LastSyncMessage = cfgMessage

	var errs []error

	if err := r.configs.SaveSyncStatus(ctx, r.cfg); err != nil {
		errs = append(errs, syncerr.New(syncerr.KindStoreWrite, "save sync status", err))
	}

	r.run.Finished = &now
	r.run.Status = status
	r.run.Summary = summary
	r.run.Message = message
	r.run.Error = errText

	if err := r.runs.FinishRun(ctx, r.run); err != nil {
		errs = append(errs, syncerr.New(syncerr.KindStoreWrite, "finish run", err))
	}

	metrics.ObserveRun(string(status), r.run.Duration())

	if r.events != nil {
		if err := r.events.PublishRunFinished(ctx, r.run); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to publish run event")
		}
	}

	r.logger.Info().
		Str("status", string(status)).
		Dur("duration", r.run.Duration()).
		Msg("Sync run finished")

	return errors.Join(errs...)
}
