package vectorindex

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	appErr "github.com/xxxsen/tutorbook/internal/pkg/errors"
)

// QdrantIndex is a minimal REST client to Qdrant implementing the Index
// contract.
type QdrantIndex struct {
	url    string
	apiKey string
	client *http.Client
}

type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantIndex{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// qdrantPointID derives a stable UUID-shaped id from an arbitrary string id.
func qdrantPointID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}

func qdrantDistance(metric string) (string, error) {
	switch metric {
	case MetricCosine:
		return "Cosine", nil
	default:
		return "", fmt.Errorf("unsupported metric: %s", metric)
	}
}

func (s *QdrantIndex) EnsureCollection(ctx context.Context, name string, dim int, metric string) error {
	distance, err := qdrantDistance(metric)
	if err != nil {
		return err
	}
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	status, err := s.getJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, name), &info)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		got := info.Result.Config.Params.Vectors
		if got.Size != dim || got.Distance != distance {
			return fmt.Errorf("%w: collection %s has size=%d distance=%s, requested size=%d distance=%s",
				appErr.ErrConfigurationConflict, name, got.Size, got.Distance, dim, distance)
		}
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": distance,
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, name), body)
}

func (s *QdrantIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	items := make([]map[string]any, 0, len(points))
	for _, p := range points {
		// Qdrant only accepts UUID or integer point ids, so the caller's id
		// rides along in the payload and the wire id is derived from it.
		payload := make(map[string]any, len(p.Payload)+1)
		for k, v := range p.Payload {
			payload[k] = v
		}
		payload["_id"] = p.ID
		items = append(items, map[string]any{
			"id":      qdrantPointID(p.ID),
			"vector":  p.Vector,
			"payload": payload,
		})
	}
	body := map[string]any{"points": items}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, collection), body)
}

func (s *QdrantIndex) Search(ctx context.Context, collection string, vector []float32, topK int) ([]ScoredPoint, error) {
	if topK <= 0 {
		return []ScoredPoint{}, nil
	}
	topK = ClampTopK(topK)
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any                    `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, collection), req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	results := make([]ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		id := fmt.Sprintf("%v", r.ID)
		if original, ok := r.Payload["_id"].(string); ok && original != "" {
			id = original
			delete(r.Payload, "_id")
		}
		results = append(results, ScoredPoint{
			ID:      id,
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	// Qdrant orders by score already; re-sort with the ID tie-break so
	// results stay deterministic across backends.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func (s *QdrantIndex) getJSON(ctx context.Context, url string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *QdrantIndex) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *QdrantIndex) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
