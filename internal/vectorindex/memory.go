package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	appErr "github.com/xxxsen/tutorbook/internal/pkg/errors"
)

// MemoryIndex is an in-process Index used for tests and offline runs.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dim    int
	metric string
	points map[string]Point
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string]*memoryCollection)}
}

func (m *MemoryIndex) EnsureCollection(ctx context.Context, name string, dim int, metric string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.collections[name]; ok {
		if existing.dim != dim || existing.metric != metric {
			return fmt.Errorf("%w: collection %s has dim=%d metric=%s, requested dim=%d metric=%s",
				appErr.ErrConfigurationConflict, name, existing.dim, existing.metric, dim, metric)
		}
		return nil
	}
	m.collections[name] = &memoryCollection{
		dim:    dim,
		metric: metric,
		points: make(map[string]Point),
	}
	return nil
}

func (m *MemoryIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s not found", collection)
	}
	for _, p := range points {
		coll.points[p.ID] = p
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, collection string, vector []float32, topK int) ([]ScoredPoint, error) {
	if topK <= 0 {
		return []ScoredPoint{}, nil
	}
	topK = ClampTopK(topK)
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s not found", appErr.ErrRetrievalUnavailable, collection)
	}
	results := make([]ScoredPoint, 0, len(coll.points))
	for _, p := range coll.points {
		results = append(results, ScoredPoint{
			ID:      p.ID,
			Score:   cosineSimilarity(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
