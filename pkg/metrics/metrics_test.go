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

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(SyncRunsTotal.WithLabelValues("success"))

	ObserveRun("success", 2*time.Second)

	assert.InDelta(t, before+1, testutil.ToFloat64(SyncRunsTotal.WithLabelValues("success")), 0.001)
}

func TestObserveAPIRequestWithoutResponse(t *testing.T) {
	ObserveAPIRequest("POST", "/venues/query", 0, time.Millisecond)
	ObserveAPIRequest("POST", "/venues/query", 200, time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(APIRequestDuration, "r1sync_controller_request_duration_seconds"))
}
