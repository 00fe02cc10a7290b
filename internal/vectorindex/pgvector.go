package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	appErr "github.com/xxxsen/tutorbook/internal/pkg/errors"
)

// PGVectorIndex stores collections and points in postgres with the pgvector
// extension. Cosine distance (<=>) drives search ordering; score is
// reported as 1 - distance so callers always see descending similarity.
type PGVectorIndex struct {
	db *sql.DB
}

func NewPGVectorIndex(db *sql.DB) *PGVectorIndex {
	return &PGVectorIndex{db: db}
}

func (p *PGVectorIndex) EnsureCollection(ctx context.Context, name string, dim int, metric string) error {
	const insert = `
		INSERT INTO collections (name, dim, metric)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := p.db.ExecContext(ctx, insert, name, dim, metric); err != nil {
		return err
	}
	const query = `SELECT dim, metric FROM collections WHERE name = $1`
	var gotDim int
	var gotMetric string
	if err := p.db.QueryRowContext(ctx, query, name).Scan(&gotDim, &gotMetric); err != nil {
		return err
	}
	if gotDim != dim || gotMetric != metric {
		return fmt.Errorf("%w: collection %s has dim=%d metric=%s, requested dim=%d metric=%s",
			appErr.ErrConfigurationConflict, name, gotDim, gotMetric, dim, metric)
	}
	return nil
}

func (p *PGVectorIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	const query = `
		INSERT INTO points (collection, id, embedding, payload, mtime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload,
			mtime = EXCLUDED.mtime
	`
	now := time.Now().UnixMilli()
	for _, point := range points {
		payload, err := json.Marshal(point.Payload)
		if err != nil {
			return fmt.Errorf("encode payload for point %s: %w", point.ID, err)
		}
		if _, err := p.db.ExecContext(ctx, query,
			collection,
			point.ID,
			pgvector.NewVector(point.Vector),
			payload,
			now,
		); err != nil {
			return fmt.Errorf("upsert point %s: %w", point.ID, err)
		}
	}
	return nil
}

func (p *PGVectorIndex) Search(ctx context.Context, collection string, vector []float32, topK int) ([]ScoredPoint, error) {
	if topK <= 0 {
		return []ScoredPoint{}, nil
	}
	topK = ClampTopK(topK)
	const query = `
		SELECT id, payload, embedding <=> $2 AS distance
		FROM points
		WHERE collection = $1
		ORDER BY embedding <=> $2 ASC, id ASC
		LIMIT $3
	`
	rows, err := p.db.QueryContext(ctx, query, collection, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	defer rows.Close()
	results := make([]ScoredPoint, 0, topK)
	for rows.Next() {
		var id string
		var blob []byte
		var distance float64
		if err := rows.Scan(&id, &blob, &distance); err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(blob, &payload); err != nil {
			return nil, fmt.Errorf("%w: decode payload for point %s: %v", appErr.ErrRetrievalUnavailable, id, err)
		}
		results = append(results, ScoredPoint{
			ID:      id,
			Score:   float32(1 - distance),
			Payload: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	return results, nil
}
