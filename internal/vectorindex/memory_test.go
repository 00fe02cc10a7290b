package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/tutorbook/internal/pkg/errors"
)

func TestMemoryIndexEnsureCollectionIdempotent(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.EnsureCollection(ctx, "textbook_content", 4, MetricCosine))
	require.NoError(t, idx.EnsureCollection(ctx, "textbook_content", 4, MetricCosine))

	err := idx.EnsureCollection(ctx, "textbook_content", 8, MetricCosine)
	require.ErrorIs(t, err, appErr.ErrConfigurationConflict)
}

func TestMemoryIndexUpsertReplacesByID(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.EnsureCollection(ctx, "c", 2, MetricCosine))

	require.NoError(t, idx.Upsert(ctx, "c", []Point{
		{ID: "ch1", Vector: []float32{1, 0}, Payload: map[string]interface{}{"content": "old"}},
	}))
	require.NoError(t, idx.Upsert(ctx, "c", []Point{
		{ID: "ch1", Vector: []float32{0, 1}, Payload: map[string]interface{}{"content": "new"}},
	}))

	hits, err := idx.Search(ctx, "c", []float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "ch1", hits[0].ID)
	require.Equal(t, "new", hits[0].Payload["content"])
}

func TestMemoryIndexSearchOrderingAndLimits(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.EnsureCollection(ctx, "c", 2, MetricCosine))
	require.NoError(t, idx.Upsert(ctx, "c", []Point{
		{ID: "far", Vector: []float32{0, 1}},
		{ID: "near", Vector: []float32{1, 0}},
		{ID: "mid", Vector: []float32{1, 1}},
	}))

	hits, err := idx.Search(ctx, "c", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	require.Equal(t, "near", hits[0].ID)
	require.Equal(t, "mid", hits[1].ID)
	require.Equal(t, "far", hits[2].ID)
	for i := 1; i < len(hits); i++ {
		require.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}

	hits, err = idx.Search(ctx, "c", []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = idx.Search(ctx, "c", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestMemoryIndexSearchTieBreakByID(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.EnsureCollection(ctx, "c", 2, MetricCosine))
	// Same vector twice: identical scores, so ordering must fall back to ID.
	require.NoError(t, idx.Upsert(ctx, "c", []Point{
		{ID: "b", Vector: []float32{1, 0}},
		{ID: "a", Vector: []float32{1, 0}},
	}))

	hits, err := idx.Search(ctx, "c", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "a", hits[0].ID)
	require.Equal(t, "b", hits[1].ID)
}

func TestMemoryIndexTopKClamped(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.EnsureCollection(ctx, "c", 2, MetricCosine))
	points := make([]Point, 0, 20)
	for i := 0; i < 20; i++ {
		points = append(points, Point{ID: string(rune('a' + i)), Vector: []float32{1, float32(i)}})
	}
	require.NoError(t, idx.Upsert(ctx, "c", points))

	hits, err := idx.Search(ctx, "c", []float32{1, 0}, 100)
	require.NoError(t, err)
	require.Len(t, hits, MaxTopK)
}

func TestMemoryIndexSearchUnknownCollection(t *testing.T) {
	idx := NewMemoryIndex()
	_, err := idx.Search(context.Background(), "missing", []float32{1}, 5)
	require.ErrorIs(t, err, appErr.ErrRetrievalUnavailable)
}
