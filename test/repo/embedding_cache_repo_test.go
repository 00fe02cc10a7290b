package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/tutorbook/internal/model"
	"github.com/xxxsen/tutorbook/internal/repo"
	"github.com/xxxsen/tutorbook/test/testutil"
)

func TestEmbeddingCacheRepoRoundTrip(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	cache := repo.NewEmbeddingCacheRepo(db)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "local-bow", "RETRIEVAL_QUERY", "hash-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Save(ctx, &model.EmbeddingCache{
		ModelName:   "local-bow",
		TaskType:    "RETRIEVAL_QUERY",
		ContentHash: "hash-1",
		Embedding:   []float32{0.1, 0.2, 0.3},
		Ctime:       time.Now().Unix(),
	}))

	values, ok, err := cache.Get(ctx, "local-bow", "RETRIEVAL_QUERY", "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, values, 3)
	require.InDelta(t, 0.2, values[1], 1e-6)
}
