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

// Package sync reconciles one RUCKUS One tenant into the inventory per run.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/mapping"
	"github.com/carverauto/r1sync/pkg/metrics"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/r1"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

const skippedMessage = "Config disabled, skipping."

var (
	errNilDependency = errors.New("sync service requires a config store, run log, inventory store and client factory")
	errNoClient      = errors.New("client factory returned no client")
)

// Service runs syncs for tenant configs.
type Service struct {
	cfg       Config
	configs   ConfigStore
	runs      RunLog
	store     inventory.Store
	newClient ClientFactory
	events    EventPublisher
	logger    logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents publishes every finalized run to p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service.
func NewService(cfg Config, configs ConfigStore, runs RunLog, store inventory.Store,
	newClient ClientFactory, opts ...Option) (*Service, error) {
	if configs == nil || runs == nil || store == nil || newClient == nil {
		return nil, errNilDependency
	}

	s := &Service{
		cfg:       cfg,
		configs:   configs,
		runs:      runs,
		store:     store,
		newClient: newClient,
		logger:    logger.NewTestLogger(),
		tracer:    logger.GetTracer("r1sync/sync"),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.WithComponent("sync")

	return s, nil
}

// Configs exposes the config store.
func (s *Service) Configs() ConfigStore {
	return s.configs
}

// Runs exposes the run log.
func (s *Service) Runs() RunLog {
	return s.runs
}

// resolveConfig looks id up as a config id, then as an inventory tenant id.
func (s *Service) resolveConfig(ctx context.Context, id int64) (*models.TenantConfig, error) {
	cfg, err := s.configs.GetConfig(ctx, id)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, models.ErrConfigNotFound) {
		return nil, syncerr.New(syncerr.KindStoreWrite, "load config", err)
	}

	cfg, err = s.configs.ConfigByTenant(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrConfigNotFound) {
			return nil, syncerr.New(syncerr.KindConfiguration, "load config", fmt.Errorf("%w: %d", err, id))
		}

		return nil, syncerr.New(syncerr.KindStoreWrite, "load config", err)
	}

	return cfg, nil
}

// RunSync reconciles one tenant config. A disabled config is skipped
// without a run log entry. Otherwise exactly one run is recorded and
// finalized before RunSync returns; a failed run returns its outcome along
// with the error.
func (s *Service) RunSync(ctx context.Context, configID int64) (*models.SyncOutcome, error) {
	cfg, err := s.resolveConfig(ctx, configID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{"config_id": cfg.ID, "tenant_id": cfg.TenantID})

	if !cfg.Enabled {
		log.Info().Msg("Config disabled, skipping sync")
		metrics.SyncRunsTotal.WithLabelValues(string(models.RunStatusSkipped)).Inc()

		return &models.SyncOutcome{ConfigID: cfg.ID, Status: models.RunStatusSkipped, Message: skippedMessage}, nil
	}

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "sync.run", trace.WithAttributes(
		attribute.Int64("r1sync.config_id", cfg.ID),
		attribute.Int64("r1sync.tenant_id", cfg.TenantID),
	))
	defer span.End()

	rec, err := s.startRun(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.String("r1sync.run_id", rec.run.ID.String()))
	log.Info().Str("run_id", rec.run.ID.String()).Msg("Sync run started")

	started := s.now()
	acc := &accumulator{}

	runErr := s.reconcile(ctx, cfg, acc, log)

	outcome := &models.SyncOutcome{ConfigID: cfg.ID, RunID: rec.run.ID, Counters: acc.counters()}

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())

		log.Error().Err(runErr).Str("kind", syncerr.KindOf(runErr).String()).Msg("Sync run failed")

		if err := rec.fail(ctx, acc.counters(), runErr); err != nil {
			log.Error().Err(err).Msg("Failed to record failed run")
		}

		outcome.Status = models.RunStatusFailed
		outcome.Message = identity.Truncate(runErr.Error(), runMessageMaxLen)

		return outcome, runErr
	}

	message := acc.message(cfg, s.now().Sub(started))
	acc.observe()

	outcome.Status = models.RunStatusSuccess
	outcome.Message = message

	if err := rec.succeed(ctx, acc.counters(), message); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// reconcile performs one run inside a single inventory transaction that is
// committed only when every venue succeeded.
func (s *Service) reconcile(ctx context.Context, cfg *models.TenantConfig, acc *accumulator, log logger.Logger) error {
	api, err := s.newClient(cfg)
	if err != nil {
		return classify(syncerr.KindConfiguration, "build controller client", err)
	}

	if api == nil {
		return syncerr.New(syncerr.KindConfiguration, "build controller client", errNoClient)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return syncerr.New(syncerr.KindStoreWrite, "begin transaction", err)
	}

	defer func() {
		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("Rollback failed")
		}
	}()

	up := inventory.NewUpserter(tx, cfg, log)
	mapper := mapping.New(tx, log)

	group, err := up.SiteGroup(ctx)
	if err != nil {
		return err
	}

	venues, err := api.Venues(ctx)
	if err != nil {
		return classify(syncerr.KindUpstream, "list venues", err)
	}

	venues = selectVenues(cfg, venues)
	acc.venues = len(venues)

	ssids := make(map[string]bool)

	if cfg.Toggles.WLANs {
		networks, err := api.WifiNetworks(ctx)
		if err != nil {
			return classify(syncerr.KindUpstream, "list wifi networks", err)
		}

		for _, n := range networks {
			if _, err := up.WirelessLAN(ctx, n.SSID); err != nil {
				return err
			}

			ssids[n.SSID] = true
		}

		acc.wlans = len(networks)
	}

	params := mapping.ParamsFor(cfg, group, s.cfg.slugPrefix())

	for _, v := range venues {
		if err := ctx.Err(); err != nil {
			return classify(syncerr.KindUpstream, "sync venues", err)
		}

		vs := &venueSync{
			cfg:   cfg,
			api:   api,
			up:    up,
			acc:   acc,
			ssids: ssids,
			now:   s.now,
			log:   log.WithFields(map[string]interface{}{"venue_id": v.ID}),
		}

		if err := s.syncVenue(ctx, mapper, params, vs, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return syncerr.New(syncerr.KindStoreWrite, "commit", err)
	}

	stats := up.Stats()
	log.Debug().Int("created", stats.Created).Int("updated", stats.Updated).Msg("Inventory committed")

	return nil
}

// classify attaches kind to err unless it already carries one.
func classify(kind syncerr.Kind, op string, err error) error {
	if syncerr.KindOf(err) != syncerr.KindUnknown {
		return err
	}

	return syncerr.New(kind, op, err)
}

// selectVenues applies the config's venue selection, keeping API order.
func selectVenues(cfg *models.TenantConfig, venues []r1.Venue) []r1.Venue {
	out := make([]r1.Venue, 0, len(venues))

	for _, v := range venues {
		if cfg.VenueSelected(v.ID) {
			out = append(out, v)
		}
	}

	return out
}
