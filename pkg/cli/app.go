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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/thejerf/suture/v4"

	"github.com/carverauto/r1sync/pkg/api"
	"github.com/carverauto/r1sync/pkg/config"
	"github.com/carverauto/r1sync/pkg/db"
	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/inventory/memstore"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/natsutil"
	"github.com/carverauto/r1sync/pkg/scheduler"
	"github.com/carverauto/r1sync/pkg/sync"
	"github.com/carverauto/r1sync/pkg/version"
)

// backend is everything the commands need from a store. Both the PostgreSQL
// store and memstore implement it.
type backend interface {
	inventory.Store
	sync.ConfigStore
	sync.RunLog
	scheduler.ConfigStore
	PutConfig(ctx context.Context, cfg *models.TenantConfig) error
}

var (
	_ backend = (*db.Store)(nil)
	_ backend = (*memstore.Store)(nil)
)

type app struct {
	cfg     *config.Config
	log     logger.Logger
	out     io.Writer
	styles  logStyles
	store   backend
	dryRun  *memstore.Store
	health  func(ctx context.Context) error
	service *sync.Service
	closers []func()
}

// Run executes the parsed command.
func Run(ctx context.Context, cmd *CmdConfig, out io.Writer) error {
	if cmd.Help {
		PrintHelp(out)
		return nil
	}

	switch cmd.SubCmd {
	case "version":
		_, _ = fmt.Fprintln(out, version.GetFullVersion())
		return nil
	case "migrate":
		return runMigrate(ctx, cmd, out)
	}

	a, err := newApp(ctx, cmd, out)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd.SubCmd {
	case "run":
		err = a.runSync(ctx, cmd)
	case "refresh-venues":
		err = a.refreshVenues(ctx, cmd.ID)
	case "serve":
		err = a.serve(ctx)
	default:
		err = fmt.Errorf("%w: %s", errUnknownCommand, cmd.SubCmd)
	}

	if err == nil && a.dryRun != nil {
		a.printDryRun()
	}

	return err
}

func loadConfig(ctx context.Context, path string) (*config.Config, logger.Logger, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Tracing.ServiceVersion == "" {
		cfg.Tracing.ServiceVersion = version.GetVersion()
	}

	log, err := logger.Init(&cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tp, err := logger.InitializeTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	shutdown := func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}

	return cfg, log, shutdown, nil
}

func newApp(ctx context.Context, cmd *CmdConfig, out io.Writer) (*app, error) {
	cfg, log, shutdown, err := loadConfig(ctx, cmd.ConfigFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		out:     out,
		styles:  newLogStyles(),
		closers: []func(){shutdown},
	}

	if err := a.build(ctx, cmd.DryRun); err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) build(ctx context.Context, dryRun bool) error {
	if err := a.openStore(ctx, dryRun); err != nil {
		return err
	}

	if err := a.seedTenants(ctx); err != nil {
		return err
	}

	opts := []sync.Option{sync.WithLogger(a.log)}

	if a.cfg.NATS.Enabled && !dryRun {
		pub, nc, err := natsutil.Connect(ctx, &a.cfg.NATS, a.log)
		if err != nil {
			a.log.Warn().Err(err).Msg("Run events disabled")
		} else {
			opts = append(opts, sync.WithEvents(pub))
			a.closers = append(a.closers, func() {
				if err := nc.Drain(); err != nil {
					a.log.Warn().Err(err).Msg("Failed to drain NATS connection")
				}
			})
		}
	}

	svc, err := sync.NewService(a.cfg.Sync.Service(), a.store, a.store, a.store,
		sync.NewClientFactory(a.cfg.Controller, a.log), opts...)
	if err != nil {
		return err
	}

	a.service = svc

	return nil
}

func (a *app) openStore(ctx context.Context, dryRun bool) error {
	if dryRun {
		a.dryRun = memstore.New()
		a.store = a.dryRun
		a.log.Info().Msg("Dry run: writing to an in-memory inventory")

		return nil
	}

	pool, err := db.NewPool(ctx, &a.cfg.Database, a.log)
	if err != nil {
		return err
	}

	if err := db.Migrate(ctx, pool, a.log); err != nil {
		pool.Close()
		return err
	}

	store, err := db.New(ctx, pool, a.log)
	if err != nil {
		pool.Close()
		return err
	}

	a.store = store
	a.health = store.Ping
	a.closers = append(a.closers, store.Close)

	return nil
}

// seedTenants inserts configured tenants that have no config yet. Existing
// configs are left alone.
func (a *app) seedTenants(ctx context.Context) error {
	for _, t := range a.cfg.Tenants {
		_, err := a.store.ConfigByTenant(ctx, t.TenantID)
		if err == nil {
			continue
		}

		if !errors.Is(err, models.ErrConfigNotFound) {
			return fmt.Errorf("look up tenant %d: %w", t.TenantID, err)
		}

		if err := a.store.PutConfig(ctx, t); err != nil {
			return fmt.Errorf("seed tenant %d: %w", t.TenantID, err)
		}

		a.log.Info().Int64("config_id", t.ID).Int64("tenant_id", t.TenantID).Str("name", t.Name).
			Msg("Seeded tenant config")
	}

	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) runSync(ctx context.Context, cmd *CmdConfig) error {
	if cmd.All {
		return a.runAll(ctx)
	}

	id := cmd.ID

	if cmd.TenantID != 0 {
		cfg, err := a.store.ConfigByTenant(ctx, cmd.TenantID)
		if err != nil {
			return fmt.Errorf("no tenant config for tenant id=%d: %w", cmd.TenantID, err)
		}

		id = cfg.ID
	}

	return a.syncOne(ctx, id)
}

func (a *app) runAll(ctx context.Context) error {
	cfgs, err := a.store.ListConfigs(ctx)
	if err != nil {
		return err
	}

	enabled := cfgs[:0]

	for _, c := range cfgs {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}

	if len(enabled) == 0 {
		a.println(a.styles.warning, "No enabled tenant configs found.")
		return nil
	}

	failed := 0

	for _, c := range enabled {
		a.println(a.styles.info, fmt.Sprintf("Running sync for config #%d (tenant=%d, name=%s)", c.ID, c.TenantID, c.Name))

		if err := a.syncOne(ctx, c.ID); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d configs", errSyncFailed, failed, len(enabled))
	}

	a.println(a.styles.success, fmt.Sprintf("Done. Synced %d configs.", len(enabled)))

	return nil
}

func (a *app) syncOne(ctx context.Context, id int64) error {
	outcome, err := a.service.RunSync(ctx, id)
	if outcome != nil {
		a.printOutcome(outcome)
	}

	if err != nil {
		a.println(a.styles.error, err.Error())
		return fmt.Errorf("%w: %w", errSyncFailed, err)
	}

	return nil
}

func (a *app) refreshVenues(ctx context.Context, id int64) error {
	venues, err := a.service.RefreshVenues(ctx, id)
	if err != nil {
		return err
	}

	for _, v := range venues {
		_, _ = fmt.Fprintf(a.out, "%s  %s\n", a.styles.muted.Render(v.ID), v.Name)
	}

	a.println(a.styles.success, fmt.Sprintf("Cached %d venues for config #%d.", len(venues), id))

	return nil
}

// serve supervises the scheduler and the HTTP API until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	sched, err := scheduler.New(a.cfg.Sync.Scheduler(), a.store, a.service, scheduler.WithLogger(a.log))
	if err != nil {
		return err
	}

	srv, err := api.New(a.cfg.Server.API(), a.service, a.store, a.store,
		api.WithLogger(a.log), api.WithHealthCheck(a.health))
	if err != nil {
		return err
	}

	sup := suture.New("r1sync", suture.Spec{
		EventHook: func(e suture.Event) {
			a.log.Warn().Str("event", e.String()).Msg("Supervisor event")
		},
		Timeout: a.cfg.Server.ShutdownTimeout,
	})
	sup.Add(sched)
	sup.Add(srv)

	a.log.Info().Str("version", version.GetVersion()).Dur("interval", a.cfg.Sync.Interval).Str("listen", a.cfg.Server.Listen).Msg("r1sync serving")

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func runMigrate(ctx context.Context, cmd *CmdConfig, out io.Writer) error {
	cfg, log, shutdown, err := loadConfig(ctx, cmd.ConfigFile)
	if err != nil {
		return err
	}
	defer shutdown()

	pool, err := db.NewPool(ctx, &cfg.Database, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, log); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, newLogStyles().success.Render("Migrations applied."))

	return nil
}
