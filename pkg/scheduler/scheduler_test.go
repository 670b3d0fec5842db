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

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/r1sync/pkg/inventory/memstore"
	"github.com/carverauto/r1sync/pkg/models"
)

var errSyncFailed = errors.New("POST /venues/query failed (500): boom")

func seed(t *testing.T, store *memstore.Store, enabled ...bool) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(enabled))

	for i, on := range enabled {
		cfg := models.NewTenantConfig()
		cfg.TenantID = int64(i + 1)
		cfg.Name = "tenant"
		cfg.Enabled = on
		require.NoError(t, store.PutConfig(context.Background(), cfg))

		ids = append(ids, cfg.ID)
	}

	return ids
}

func success(id int64) *models.SyncOutcome {
	return &models.SyncOutcome{ConfigID: id, Status: models.RunStatusSuccess}
}

func TestRunAllSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	ids := seed(t, store, true, false, true)

	runner := NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().RunSync(gomock.Any(), ids[0]).Return(success(ids[0]), nil),
		runner.EXPECT().RunSync(gomock.Any(), ids[2]).Return(&models.SyncOutcome{Status: models.RunStatusFailed}, errSyncFailed),
	)

	s, err := New(Config{}, store, runner)
	require.NoError(t, err)

	sum, err := s.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{OK: 1, Failed: 1, Skipped: 1}, sum)
	assert.Equal(t, "Done. ok=1 failed=1 skipped=1", sum.String())

	cfg, err := store.GetConfig(context.Background(), ids[2])
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.SyncFailures)
	assert.True(t, cfg.Enabled)
}

func TestRunAllDisablesAfterFailureLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	ids := seed(t, store, true)

	runner := NewMockRunner(ctrl)
	runner.EXPECT().RunSync(gomock.Any(), ids[0]).Return(nil, errSyncFailed).Times(2)

	s, err := New(Config{FailureLimit: 2}, store, runner)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		sum, err := s.RunAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Failed)
	}

	cfg, err := store.GetConfig(context.Background(), ids[0])
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.SyncFailures)

	sum, err := s.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 1}, sum)
}

func TestRunAllResetsFailuresOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	ids := seed(t, store, true)

	runner := NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().RunSync(gomock.Any(), ids[0]).Return(nil, errSyncFailed),
		runner.EXPECT().RunSync(gomock.Any(), ids[0]).Return(success(ids[0]), nil),
	)

	s, err := New(Config{}, store, runner)
	require.NoError(t, err)

	_, err = s.RunAll(context.Background())
	require.NoError(t, err)

	_, err = s.RunAll(context.Background())
	require.NoError(t, err)

	cfg, err := store.GetConfig(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Zero(t, cfg.SyncFailures)
}

func TestRunAllCountsRunnerSkipAsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	ids := seed(t, store, true)

	runner := NewMockRunner(ctrl)
	runner.EXPECT().RunSync(gomock.Any(), ids[0]).Return(&models.SyncOutcome{Status: models.RunStatusSkipped}, nil)

	s, err := New(Config{}, store, runner)
	require.NoError(t, err)

	sum, err := s.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 1}, sum)
}

func TestRunAllStopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	seed(t, store, true)

	s, err := New(Config{}, store, NewMockRunner(ctrl))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.RunAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestServeRunsOnTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	ids := seed(t, store, true)

	ticks := make(chan time.Time)
	ticker := NewMockTicker(ctrl)
	ticker.EXPECT().Chan().Return((<-chan time.Time)(ticks)).AnyTimes()
	ticker.EXPECT().Stop()

	clock := NewMockClock(ctrl)
	clock.EXPECT().Ticker(time.Minute).Return(ticker)
	clock.EXPECT().Now().Return(time.Unix(0, 0)).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{})

	runner := NewMockRunner(ctrl)
	runner.EXPECT().RunSync(gomock.Any(), ids[0]).DoAndReturn(func(context.Context, int64) (*models.SyncOutcome, error) {
		close(ran)
		return success(ids[0]), nil
	})

	s, err := New(Config{Interval: time.Minute}, store, runner, WithClock(clock))
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() { done <- s.Serve(ctx) }()

	ticks <- time.Unix(60, 0)
	<-ran

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{}, memstore.New(), NewMockRunner(gomock.NewController(t)))
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, s.cfg.Interval)
	assert.Equal(t, DefaultFailureLimit, s.cfg.FailureLimit)

	_, err = New(Config{}, nil, nil)
	require.ErrorIs(t, err, errNilDependency)
}
