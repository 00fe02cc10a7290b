package vectorindex

import "context"

const MetricCosine = "cosine"

// MaxTopK bounds caller-supplied result counts to keep response size and
// search cost predictable.
const MaxTopK = 10

const DefaultTopK = 5

type Point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

type ScoredPoint struct {
	ID      string                 `json:"id"`
	Score   float32                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// Index is the vector store contract shared by the pgvector, qdrant and
// in-memory backends. EnsureCollection is idempotent: re-creating an
// existing collection with matching dim/metric is a no-op, a mismatch is
// errors.ErrConfigurationConflict. Upsert replaces points by ID, never
// duplicating them. Search returns at most topK points ordered by
// descending similarity, ties broken by ID; transport or backend failures
// surface as errors.ErrRetrievalUnavailable.
type Index interface {
	EnsureCollection(ctx context.Context, name string, dim int, metric string) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]ScoredPoint, error)
}

func ClampTopK(topK int) int {
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}
