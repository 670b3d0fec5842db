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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLStatementsHandlesDollarQuotedBlocks(t *testing.T) {
	content := `
-- Tenant configs
CREATE TABLE IF NOT EXISTS tenant_configs (id BIGSERIAL PRIMARY KEY);

DO $$
BEGIN
    PERFORM set_config('search_path', 'public', false);
    PERFORM 1;
END $$;

SELECT 1;
`

	statements := splitSQLStatements(content)

	require.Len(t, statements, 3)
	assert.True(t, strings.HasPrefix(statements[1], "DO"))
	assert.Equal(t, "SELECT 1", statements[2])
}

func TestSplitSQLStatementsIgnoresSemicolonsInQuotes(t *testing.T) {
	content := `
INSERT INTO sites (name, slug, tenant_id) VALUES ('Lobby; East', 'r1-lobby-east', 7);
/* block; comment */
DO $tag$
BEGIN
    PERFORM length('value;with;semicolons');
END $tag$;
`

	statements := splitSQLStatements(content)

	require.Len(t, statements, 2)
	assert.True(t, strings.HasPrefix(statements[0], "INSERT"))
	assert.Contains(t, statements[0], "'Lobby; East'")
	assert.True(t, strings.HasPrefix(statements[1], "DO"))
	assert.True(t, strings.HasSuffix(statements[1], "$tag$"))
}

func TestSplitSQLStatementsKeepsPositionalParameters(t *testing.T) {
	statements := splitSQLStatements(`SELECT $1, $2::int; SELECT 2`)

	require.Len(t, statements, 2)
	assert.Equal(t, "SELECT $1, $2::int", statements[0])
}

func TestSplitSQLStatementsHandlesEscapedQuotesAndCommentApostrophes(t *testing.T) {
	content := "INSERT INTO sites (name) VALUES ('O''Brien; annex'); -- venue's stub site\nSELECT 2;"

	statements := splitSQLStatements(content)

	require.Len(t, statements, 2)
	assert.Equal(t, "INSERT INTO sites (name) VALUES ('O''Brien; annex')", statements[0])
	assert.Equal(t, "SELECT 2", statements[1])
}

func TestExtractVersion(t *testing.T) {
	assert.Equal(t, "00001", extractVersion("00001_initial.up.sql"))
	assert.Equal(t, "00002", extractVersion("00002_sync_runs_by_config.up.sql"))
	assert.Equal(t, "noversion.sql", extractVersion("noversion.sql"))
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	names, err := pendingMigrations(nil)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	assert.Equal(t, "00001_initial.up.sql", names[0])

	for _, name := range names {
		assert.True(t, strings.HasSuffix(name, ".up.sql"), name)

		content, err := migrationsFS.ReadFile("migrations/" + name)
		require.NoError(t, err)
		assert.NotEmpty(t, splitSQLStatements(string(content)), name)
	}
}

func TestPendingMigrationsSkipsApplied(t *testing.T) {
	names, err := pendingMigrations(map[string]struct{}{"00001": {}})
	require.NoError(t, err)

	assert.NotContains(t, names, "00001_initial.up.sql")
}
