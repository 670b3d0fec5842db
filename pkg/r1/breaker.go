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

package r1

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/metrics"
)

// BreakerConfig tunes the per-client circuit breaker.
type BreakerConfig struct {
	// ConsecutiveFailures opens the breaker. Zero uses 5.
	ConsecutiveFailures uint32 `json:"consecutive_failures" koanf:"consecutive_failures"`
	// OpenTimeout is how long the breaker stays open. Zero uses 30s.
	OpenTimeout time.Duration `json:"open_timeout" koanf:"open_timeout"`
	// HalfOpenRequests is the probe budget while half-open. Zero uses 1.
	HalfOpenRequests uint32 `json:"half_open_requests" koanf:"half_open_requests"`
}

func newBreaker(name string, cfg BreakerConfig, log logger.Logger) *gobreaker.CircuitBreaker[*exchange] {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}

	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	metrics.BreakerState.WithLabelValues(name).Set(stateValue(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[*exchange](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Controller API circuit breaker state change")

			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}

	return 0
}
