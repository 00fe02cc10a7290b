package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/tutorbook/internal/model"
)

type memTranslationStore struct {
	mu      sync.Mutex
	entries map[string]*model.TranslationCacheEntry
}

func newMemTranslationStore() *memTranslationStore {
	return &memTranslationStore{entries: make(map[string]*model.TranslationCacheEntry)}
}

func (s *memTranslationStore) Get(ctx context.Context, contentHash, targetLanguage string) (*model.TranslationCacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[contentHash+":"+targetLanguage]
	if !ok {
		return nil, false, nil
	}
	clone := *entry
	return &clone, true, nil
}

func (s *memTranslationStore) Save(ctx context.Context, entry *model.TranslationCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.entries[entry.SourceContentHash+":"+entry.TargetLanguage] = &clone
	return nil
}

func (s *memTranslationStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type countingTranslator struct {
	mu    sync.Mutex
	inner Translator
	err   error
	calls int
}

func (c *countingTranslator) Translate(ctx context.Context, content string, targetLanguage string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return c.inner.Translate(ctx, content, targetLanguage)
}

func (c *countingTranslator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestTranslateCachesResult(t *testing.T) {
	store := newMemTranslationStore()
	translator := &countingTranslator{inner: NewPlaceholderTranslator()}
	svc := NewTranslationService(store, translator, DefaultTranslationTTL)
	ctx := context.Background()

	first := svc.Translate(ctx, "Robots use sensors.", "ur")
	require.Equal(t, "[TRANSLATION PLACEHOLDER] Original: Robots use sensors.", first)
	require.Equal(t, 1, translator.count())

	second := svc.Translate(ctx, "Robots use sensors.", "ur")
	require.Equal(t, first, second)
	require.Equal(t, 1, translator.count())
	require.Equal(t, 1, store.len())
}

func TestTranslateRefreshesAfterTTL(t *testing.T) {
	store := newMemTranslationStore()
	translator := &countingTranslator{inner: NewPlaceholderTranslator()}
	svc := NewTranslationService(store, translator, DefaultTranslationTTL)
	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	svc.Translate(ctx, "content", "ur")
	require.Equal(t, 1, translator.count())
	hash := ContentHash("content", "ur")
	entry, ok, err := store.Get(ctx, hash, "ur")
	require.NoError(t, err)
	require.True(t, ok)
	firstExpiry := entry.ExpiresAt

	// Still fresh just before the deadline.
	now = now.Add(DefaultTranslationTTL - time.Second)
	svc.Translate(ctx, "content", "ur")
	require.Equal(t, 1, translator.count())

	// Past the deadline the strategy runs again and expiry moves forward.
	now = now.Add(2 * time.Second)
	svc.Translate(ctx, "content", "ur")
	require.Equal(t, 2, translator.count())
	entry, ok, err = store.Get(ctx, hash, "ur")
	require.NoError(t, err)
	require.True(t, ok)
	require.Greater(t, entry.ExpiresAt, firstExpiry)
	require.Equal(t, 1, store.len())
}

func TestTranslateUnsupportedLanguagePassthrough(t *testing.T) {
	svc := NewTranslationService(newMemTranslationStore(), NewPlaceholderTranslator(), DefaultTranslationTTL)

	out := svc.Translate(context.Background(), "unchanged content", "xx")
	require.Equal(t, "unchanged content", out)
}

func TestTranslateCachesFailureMarker(t *testing.T) {
	store := newMemTranslationStore()
	translator := &countingTranslator{inner: NewPlaceholderTranslator(), err: errors.New("service down")}
	svc := NewTranslationService(store, translator, DefaultTranslationTTL)
	ctx := context.Background()

	out := svc.Translate(ctx, "some text", "ur")
	require.Equal(t, "[TRANSLATION UNAVAILABLE] Original: some text", out)
	require.Equal(t, 1, translator.count())

	// The failure marker is cached, so the failing translator is not
	// re-invoked before expiry.
	again := svc.Translate(ctx, "some text", "ur")
	require.Equal(t, out, again)
	require.Equal(t, 1, translator.count())
}

func TestTranslateConcurrentSameKeySingleInvocation(t *testing.T) {
	store := newMemTranslationStore()
	translator := &countingTranslator{inner: NewPlaceholderTranslator()}
	svc := NewTranslationService(store, translator, DefaultTranslationTTL)
	ctx := context.Background()

	var wg sync.WaitGroup
	outputs := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outputs[i] = svc.Translate(ctx, "racy content", "ur")
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, translator.count())
	require.Equal(t, 1, store.len())
	for _, out := range outputs {
		require.Equal(t, outputs[0], out)
	}
}

func TestContentHashDeterministic(t *testing.T) {
	require.Equal(t, ContentHash("abc", "ur"), ContentHash("abc", "ur"))
	require.NotEqual(t, ContentHash("abc", "ur"), ContentHash("abd", "ur"))
	require.NotEqual(t, ContentHash("abc", "ur"), ContentHash("abc", "en"))
	// Known digest of "abc:ur", part of the wire contract.
	require.Equal(t, "7f3b04faa222f724e7a66186f58d9670ac5b73712380cf310d127ddcf99fcb1d", ContentHash("abc", "ur"))
}
