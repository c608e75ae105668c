package queries

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The query files under internal/db/query are the sqlc inputs for this package.
func TestGeneratedQueriesMatchSources(t *testing.T) {
	generated := map[string]string{
		"InsertDuelRecord":             insertDuelRecord,
		"ListDuelRecordsBySubject":     listDuelRecordsBySubject,
		"GetDuelSummary":               getDuelSummary,
		"InsertLeaderboardSnapshot":    insertLeaderboardSnapshot,
		"GetLatestLeaderboardSnapshot": getLatestLeaderboardSnapshot,
	}

	files, err := filepath.Glob(filepath.Join("..", "query", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	seen := make(map[string]bool)
	for _, file := range files {
		raw, err := os.ReadFile(file)
		require.NoError(t, err)

		for _, block := range strings.Split(string(raw), "-- name: ")[1:] {
			name := strings.Fields(block)[0]
			want, ok := generated[name]
			if !assert.True(t, ok, "query %s in %s has no generated constant", name, file) {
				continue
			}
			source := strings.TrimSuffix(strings.TrimSpace("-- name: "+block), ";")
			assert.Equal(t, strings.TrimSpace(want), source, name)
			seen[name] = true
		}
	}
	assert.Len(t, seen, len(generated))
}
