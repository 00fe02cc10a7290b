package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/tutorbook/internal/ai"
	"github.com/xxxsen/tutorbook/internal/vectorindex"
)

// FallbackContext is returned in place of real context whenever retrieval
// cannot produce one. Downstream code must branch on RetrievalResult.Found,
// not on this string; it exists for wire compatibility only.
const FallbackContext = "This is a fallback response. The system is currently retrieving textbook content."

type RetrievalResult struct {
	Context string
	Found   bool
}

type RetrievalService struct {
	embedder   ai.IEmbedder
	index      vectorindex.Index
	collection string
}

func NewRetrievalService(embedder ai.IEmbedder, index vectorindex.Index, collection string) *RetrievalService {
	return &RetrievalService{
		embedder:   embedder,
		index:      index,
		collection: collection,
	}
}

// RetrieveContext embeds the query, searches the index and joins the
// content of the hits in returned order. It never fails: any problem along
// the way degrades to the fallback result.
func (s *RetrievalService) RetrieveContext(ctx context.Context, query string, topK int) RetrievalResult {
	logger := logutil.GetLogger(ctx).With(zap.String("query", query))
	if strings.TrimSpace(query) == "" {
		return fallbackResult()
	}
	if topK <= 0 {
		topK = vectorindex.DefaultTopK
	}
	topK = vectorindex.ClampTopK(topK)
	queryEmb, err := s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return fallbackResult()
	}
	hits, err := s.index.Search(ctx, s.collection, queryEmb, topK)
	if err != nil {
		logger.Error("index search failed", zap.Error(err))
		return fallbackResult()
	}
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		if content, ok := hit.Payload["content"].(string); ok && content != "" {
			parts = append(parts, content)
		}
	}
	if len(parts) == 0 {
		logger.Info("no context found for query")
		return fallbackResult()
	}
	logger.Debug("context retrieved", zap.Int("hits", len(hits)))
	return RetrievalResult{Context: strings.Join(parts, " "), Found: true}
}

// Search exposes raw scored hits for the search endpoint. Unlike
// RetrieveContext it reports failures, which the handler maps to a
// degraded-service response.
func (s *RetrievalService) Search(ctx context.Context, query string, topK int) ([]vectorindex.ScoredPoint, error) {
	if topK <= 0 {
		topK = vectorindex.DefaultTopK
	}
	topK = vectorindex.ClampTopK(topK)
	queryEmb, err := s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return s.index.Search(ctx, s.collection, queryEmb, topK)
}

func fallbackResult() RetrievalResult {
	return RetrievalResult{Context: FallbackContext, Found: false}
}
