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

package syncerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrappedChain(t *testing.T) {
	base := errors.New("502 bad gateway")
	err := fmt.Errorf("venue v1: %w", New(KindUpstream, "POST /venues/aps/query", base))

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.True(t, Is(err, KindUpstream))
	require.ErrorIs(t, err, base)
	assert.Equal(t, "venue v1: POST /venues/aps/query: 502 bad gateway", err.Error())
}

func TestNewNil(t *testing.T) {
	assert.NoError(t, New(KindStoreWrite, "op", nil))
}

func TestFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "anomaly", err: Errorf(KindDataAnomaly, "vid %d out of range", 5000), want: false},
		{name: "config", err: Errorf(KindConfiguration, "mode %q", "zones"), want: true},
		{name: "unclassified", err: errors.New("boom"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fatal(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "store_write", KindStoreWrite.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
