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

// Package metrics holds the Prometheus collectors exported by r1sync.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "r1sync_runs_total",
			Help: "Sync runs by final status",
		},
		[]string{"status"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "r1sync_run_duration_seconds",
			Help:    "Wall time of finalized sync runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"status"},
	)

	SyncObjectsTouched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "r1sync_objects_touched_total",
			Help: "Inventory objects touched by sync runs, by category",
		},
		[]string{"category"},
	)

	SyncRunErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "r1sync_run_errors_total",
			Help: "Failed sync runs by error kind",
		},
		[]string{"kind"},
	)

	ConfigsAutoDisabled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "r1sync_configs_auto_disabled_total",
			Help: "Tenant configs disabled after repeated failures",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "r1sync_controller_request_duration_seconds",
			Help:    "Controller API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "r1sync_controller_breaker_state",
			Help: "Controller API circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "r1sync_http_requests_total",
			Help: "Requests served by the r1sync HTTP API",
		},
		[]string{"route", "code"},
	)
)

// ObserveAPIRequest records one controller API exchange. A zero status
// means the request never produced a response.
func ObserveAPIRequest(method, endpoint string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}

	APIRequestDuration.WithLabelValues(method, endpoint, code).Observe(elapsed.Seconds())
}

// ObserveRun records a finalized run.
func ObserveRun(status string, elapsed time.Duration) {
	SyncRunsTotal.WithLabelValues(status).Inc()
	SyncRunDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}
