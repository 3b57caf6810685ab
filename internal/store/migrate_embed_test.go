// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err, "should read embedded migrations directory")

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		require.True(t, pattern.MatchString(name), "file %s should match NNNNNN_name.(up|down).sql", name)
		if m := regexp.MustCompile(`^(.*)\.up\.sql$`).FindStringSubmatch(name); m != nil {
			ups[m[1]] = true
		} else if m := regexp.MustCompile(`^(.*)\.down\.sql$`).FindStringSubmatch(name); m != nil {
			downs[m[1]] = true
		}
	}
	assert.Equal(t, ups, downs, "every up migration has a down migration")
}

func TestMigrations_Ordered(t *testing.T) {
	migs, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, Migration{Version: 1, Name: "000001_accounts"}, migs[0])
	assert.Equal(t, Migration{Version: 2, Name: "000002_sessions"}, migs[1])
}
