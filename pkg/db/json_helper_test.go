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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/r1sync/pkg/models"
)

func TestJSONBWritesEmptyContainers(t *testing.T) {
	var venues []string

	b, err := jsonb(venues)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	var m map[string]string

	b, err = jsonb(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestJSONBRoundTripsToggles(t *testing.T) {
	in := models.NewTenantConfig().Toggles

	b, err := jsonb(in)
	require.NoError(t, err)

	var out models.SyncToggles
	require.NoError(t, fromJSONB(b, &out))
	assert.Equal(t, in, out)
}

func TestFromJSONBKeepsDefaultsOnEmpty(t *testing.T) {
	toggles := models.SyncToggles{APs: true}

	require.NoError(t, fromJSONB(nil, &toggles))
	assert.True(t, toggles.APs)

	require.Error(t, fromJSONB([]byte("{"), &toggles))
}

func TestRawJSONStoresNullForEmpty(t *testing.T) {
	assert.Nil(t, rawJSON(nil))
	assert.Equal(t, []byte(`{"a":1}`), rawJSON(json.RawMessage(`{"a":1}`)))
}
