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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/r1sync/pkg/inventory/memstore"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

type fixture struct {
	syncer *MockSyncer
	store  *memstore.Store
	server *Server
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{syncer: NewMockSyncer(ctrl), store: memstore.New()}

	var err error

	f.server, err = New(Config{Token: "s3cret"}, f.syncer, f.store, f.store, opts...)
	require.NoError(t, err)

	return f
}

func (f *fixture) do(t *testing.T, method, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, http.NoBody)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rr := httptest.NewRecorder()
	f.server.ServeHTTP(rr, req)

	return rr
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil)
	require.ErrorIs(t, err, errNilDependency)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","version":"dev"}`, rr.Body.String())
}

func TestHealthFailing(t *testing.T) {
	f := newFixture(t, WithHealthCheck(func(context.Context) error { return errors.New("db down") }))

	rr := f.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "db down")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/healthz")

	rr := f.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "r1sync_http_requests_total")
}

func TestListConfigsRedactsSecret(t *testing.T) {
	f := newFixture(t)

	cfg := models.NewTenantConfig()
	cfg.Name = "acme"
	cfg.TenantID = 7
	cfg.ClientSecret = "hunter2"
	require.NoError(t, f.store.PutConfig(context.Background(), cfg))

	rr := f.do(t, http.MethodGet, "/api/v1/configs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hunter2")

	var got []models.TenantConfig
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "acme", got[0].Name)
	assert.Empty(t, got[0].ClientSecret)
}

func TestSyncRequiresToken(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/configs/1/sync")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/v1/configs/1/sync", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSyncSuccess(t *testing.T) {
	f := newFixture(t)

	runID := uuid.New()
	f.syncer.EXPECT().RunSync(gomock.Any(), int64(3)).Return(&models.SyncOutcome{
		ConfigID: 3,
		RunID:    runID,
		Status:   models.RunStatusSuccess,
		Message:  "Synced 1 venue",
		Counters: models.RunCounters{Venues: 1, Devices: 4},
	}, nil)

	rr := f.do(t, http.MethodPost, "/api/v1/configs/3/sync", "Authorization", "Bearer s3cret")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, runID.String(), body["run_id"])
	assert.NotContains(t, body, "error")
}

func TestSyncErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		outcome *models.SyncOutcome
		err     error
		want    int
	}{
		{"not found", nil, models.ErrConfigNotFound, http.StatusNotFound},
		{"configuration", &models.SyncOutcome{Status: models.RunStatusFailed},
			syncerr.New(syncerr.KindConfiguration, "token", errors.New("redirect")), http.StatusUnprocessableEntity},
		{"authentication", &models.SyncOutcome{Status: models.RunStatusFailed},
			syncerr.New(syncerr.KindAuthentication, "token", errors.New("401")), http.StatusBadGateway},
		{"upstream", &models.SyncOutcome{Status: models.RunStatusFailed},
			syncerr.New(syncerr.KindUpstream, "venues", errors.New("503")), http.StatusBadGateway},
		{"store", &models.SyncOutcome{Status: models.RunStatusFailed},
			syncerr.New(syncerr.KindStoreWrite, "commit", errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.syncer.EXPECT().RunSync(gomock.Any(), int64(9)).Return(tt.outcome, tt.err)

			rr := f.do(t, http.MethodPost, "/api/v1/configs/9/sync", "X-API-Key", "s3cret")
			assert.Equal(t, tt.want, rr.Code)
			assert.Contains(t, rr.Body.String(), "error")
		})
	}
}

func TestSyncRejectsConcurrentTrigger(t *testing.T) {
	f := newFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})

	f.syncer.EXPECT().RunSync(gomock.Any(), int64(5)).DoAndReturn(
		func(context.Context, int64) (*models.SyncOutcome, error) {
			close(started)
			<-release

			return &models.SyncOutcome{ConfigID: 5, Status: models.RunStatusSuccess}, nil
		})

	done := make(chan int)

	go func() {
		done <- f.do(t, http.MethodPost, "/api/v1/configs/5/sync", "X-API-Key", "s3cret").Code
	}()

	<-started

	rr := f.do(t, http.MethodPost, "/api/v1/configs/5/sync", "X-API-Key", "s3cret")
	assert.Equal(t, http.StatusConflict, rr.Code)

	close(release)

	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("first sync did not finish")
	}
}

func TestSyncInvalidID(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/configs/abc/sync", "X-API-Key", "s3cret")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefreshVenues(t *testing.T) {
	f := newFixture(t)

	f.syncer.EXPECT().RefreshVenues(gomock.Any(), int64(2)).
		Return([]models.VenueRef{{ID: "v1", Name: "HQ"}}, nil)

	rr := f.do(t, http.MethodPost, "/api/v1/configs/2/venues/refresh", "X-API-Key", "s3cret")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":"v1","name":"HQ"}]`, rr.Body.String())
}

func TestListRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		run := &models.SyncRun{
			ID:       uuid.New(),
			ConfigID: 4,
			Started:  base.Add(time.Duration(i) * time.Minute),
			Status:   models.RunStatusRunning,
		}
		require.NoError(t, f.store.StartRun(ctx, run))
	}

	rr := f.do(t, http.MethodGet, "/api/v1/configs/4/runs?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)

	var runs []models.SyncRun
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.True(t, runs[0].Started.After(runs[1].Started))

	rr = f.do(t, http.MethodGet, "/api/v1/configs/4/runs?limit=0")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/v1/configs/99/runs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	f.server.cfg.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- f.server.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
