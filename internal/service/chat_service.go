package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/tutorbook/internal/vectorindex"
)

// ChatService glues retrieval and synthesis into the question-answering
// path, with an optional translated rendering of the answer.
type ChatService struct {
	retrieval   *RetrievalService
	synthesizer Synthesizer
	translation *TranslationService
	cache       *expirable.LRU[string, string]
}

func NewChatService(retrieval *RetrievalService, synthesizer Synthesizer, translation *TranslationService) *ChatService {
	cache := expirable.NewLRU[string, string](10000, nil, 2*time.Hour)
	return &ChatService{
		retrieval:   retrieval,
		synthesizer: synthesizer,
		translation: translation,
		cache:       cache,
	}
}

// Ask always answers: retrieval and synthesis both degrade to templated
// responses instead of failing, so the worst case is an answer that
// communicates degraded service.
func (s *ChatService) Ask(ctx context.Context, query string, targetLanguage string) string {
	cacheKey := s.cacheKey(query, targetLanguage)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached
	}
	retrieval := s.retrieval.RetrieveContext(ctx, query, vectorindex.DefaultTopK)
	answer := s.synthesizer.Synthesize(ctx, query, retrieval)
	if targetLanguage != "" && s.translation != nil {
		answer = s.translation.Translate(ctx, answer, targetLanguage)
	}
	// Degraded answers are not cached so recovery is picked up immediately.
	if retrieval.Found {
		s.cache.Add(cacheKey, answer)
	}
	return answer
}

func (s *ChatService) cacheKey(query, targetLanguage string) string {
	hash := sha256.Sum256([]byte(query + ":" + targetLanguage))
	return "chat:" + hex.EncodeToString(hash[:])
}
