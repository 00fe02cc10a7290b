package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/tutorbook/internal/ai"
	"github.com/xxxsen/tutorbook/internal/model"
	appErr "github.com/xxxsen/tutorbook/internal/pkg/errors"
)

const (
	DefaultTargetLanguage = "ur"
	DefaultTranslationTTL = 24 * time.Hour

	sourceLanguage = "en"

	translationLockStripes = 64
)

// Translator produces a rendering of content in the target language. An
// unsupported language is not an error: implementations return the content
// unchanged.
type Translator interface {
	Translate(ctx context.Context, content string, targetLanguage string) (string, error)
}

// TranslationCacheStore is the persistence surface TranslationService
// needs; *repo.TranslationCacheRepo implements it.
type TranslationCacheStore interface {
	Get(ctx context.Context, contentHash, targetLanguage string) (*model.TranslationCacheEntry, bool, error)
	Save(ctx context.Context, entry *model.TranslationCacheEntry) error
}

// ContentHash is the cache key digest: hex sha256 of
// "{content}:{targetLanguage}". The concatenation is part of the wire
// contract and must not change.
func ContentHash(content, targetLanguage string) string {
	hash := sha256.Sum256([]byte(content + ":" + targetLanguage))
	return hex.EncodeToString(hash[:])
}

type TranslationService struct {
	store      TranslationCacheStore
	translator Translator
	ttl        time.Duration
	now        func() time.Time
	locks      [translationLockStripes]sync.Mutex
}

func NewTranslationService(store TranslationCacheStore, translator Translator, ttl time.Duration) *TranslationService {
	if ttl <= 0 {
		ttl = DefaultTranslationTTL
	}
	return &TranslationService{
		store:      store,
		translator: translator,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Translate returns the cached rendering while it is fresh, otherwise
// recomputes and refreshes the single row for this (hash, language) key.
// It never fails: cache trouble degrades to recomputation, translator
// trouble degrades to the unavailable marker (which is cached too, so a
// failing translator is not hammered until the entry expires).
func (s *TranslationService) Translate(ctx context.Context, content string, targetLanguage string) string {
	if strings.TrimSpace(targetLanguage) == "" {
		targetLanguage = DefaultTargetLanguage
	}
	logger := logutil.GetLogger(ctx).With(zap.String("target_language", targetLanguage))
	contentHash := ContentHash(content, targetLanguage)

	// Serialize the read-check-write window per key so two racing callers
	// cannot both invoke the translator; the repo upsert additionally
	// collapses cross-process races onto one live row.
	lock := s.lockFor(contentHash + ":" + targetLanguage)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	if entry, ok, err := s.store.Get(ctx, contentHash, targetLanguage); err != nil {
		logger.Warn("translation cache read failed", zap.Error(err))
	} else if ok && now.Unix() < entry.ExpiresAt {
		logger.Debug("translation cache hit")
		return entry.TranslatedContent
	}

	translated, err := s.translator.Translate(ctx, content, targetLanguage)
	if err != nil {
		logger.Warn("translation strategy failed", zap.Error(err))
		translated = fmt.Sprintf("[TRANSLATION UNAVAILABLE] Original: %s", content)
	}
	if err := s.store.Save(ctx, &model.TranslationCacheEntry{
		SourceContentHash: contentHash,
		SourceLanguage:    sourceLanguage,
		TargetLanguage:    targetLanguage,
		TranslatedContent: translated,
		CreatedAt:         now.Unix(),
		ExpiresAt:         now.Add(s.ttl).Unix(),
	}); err != nil {
		logger.Warn("failed to cache translation", zap.Error(err))
	}
	return translated
}

func (s *TranslationService) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%translationLockStripes]
}

// placeholderTranslator wraps supported languages with a marker instead of
// a real translation; unsupported languages pass through unchanged.
type placeholderTranslator struct {
	supported map[string]bool
}

func NewPlaceholderTranslator(languages ...string) Translator {
	supported := make(map[string]bool, len(languages))
	for _, lang := range languages {
		supported[strings.ToLower(lang)] = true
	}
	if len(supported) == 0 {
		supported[DefaultTargetLanguage] = true
	}
	return &placeholderTranslator{supported: supported}
}

func (t *placeholderTranslator) Translate(ctx context.Context, content string, targetLanguage string) (string, error) {
	if !t.supported[strings.ToLower(targetLanguage)] {
		return content, nil
	}
	return fmt.Sprintf("[TRANSLATION PLACEHOLDER] Original: %s", content), nil
}

// aiTranslator renders content through a language model.
type aiTranslator struct {
	gen ai.IGenerator
}

func NewAITranslator(gen ai.IGenerator) Translator {
	return &aiTranslator{gen: gen}
}

func (t *aiTranslator) Translate(ctx context.Context, content string, targetLanguage string) (string, error) {
	prompt := fmt.Sprintf(`You are a professional translator.
Translate the following content into the language with ISO 639-1 code %q.
- Preserve formatting and technical terms.
- Output ONLY the translation.

CONTENT:
%s`, targetLanguage, content)
	translated, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrTranslationUnavailable, err)
	}
	if strings.TrimSpace(translated) == "" {
		return "", fmt.Errorf("%w: empty response", appErr.ErrTranslationUnavailable)
	}
	return translated, nil
}
