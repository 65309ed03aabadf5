//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yojanasaar/yojanasaar/internal/service"
	"github.com/yojanasaar/yojanasaar/internal/testutil"
)

func TestQueryLogRepository_CreateQueryLog(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewQueryLogRepository(pool)

	t.Run("answered query", func(t *testing.T) {
		id, err := repo.CreateQueryLog(ctx, service.QueryLogEntry{
			Query:       "housing support for farmers",
			K:           5,
			State:       "Goa",
			Category:    "Agriculture",
			ResultCount: 3,
			Answered:    true,
			DurationMs:  412,
			SchemeIDs:   []string{"a", "b", "c"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		var query string
		var resultCount int
		var answered bool
		var errorCode *string
		row := pool.QueryRow(ctx, "SELECT query, result_count, answered, error_code FROM query_logs WHERE id = $1", id)
		require.NoError(t, row.Scan(&query, &resultCount, &answered, &errorCode))
		assert.Equal(t, "housing support for farmers", query)
		assert.Equal(t, 3, resultCount)
		assert.True(t, answered)
		assert.Nil(t, errorCode)
	})

	require.NoError(t, testutil.TruncateAll(ctx, pool))

	t.Run("failed query", func(t *testing.T) {
		id, err := repo.CreateQueryLog(ctx, service.QueryLogEntry{
			Query:      "anything",
			K:          5,
			Answered:   false,
			ErrorCode:  "EMBEDDING_ERROR",
			DurationMs: 12,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		var errorCode *string
		row := pool.QueryRow(ctx, "SELECT error_code FROM query_logs WHERE id = $1", id)
		require.NoError(t, row.Scan(&errorCode))
		require.NotNil(t, errorCode)
		assert.Equal(t, "EMBEDDING_ERROR", *errorCode)

		var total int
		row = pool.QueryRow(ctx, "SELECT COUNT(*) FROM query_logs")
		require.NoError(t, row.Scan(&total))
		assert.Equal(t, 1, total, "truncate isolates the phases")
	})
}
