package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/tutorbook/internal/model"
	"github.com/xxxsen/tutorbook/internal/repo"
	"github.com/xxxsen/tutorbook/internal/service"
	"github.com/xxxsen/tutorbook/test/testutil"
)

func TestTranslationCacheRepoUpsertSingleRow(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	cache := repo.NewTranslationCacheRepo(db)
	ctx := context.Background()
	hash := service.ContentHash("some chapter text", "ur")
	now := time.Now().Unix()

	_, ok, err := cache.Get(ctx, hash, "ur")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Save(ctx, &model.TranslationCacheEntry{
		SourceContentHash: hash,
		SourceLanguage:    "en",
		TargetLanguage:    "ur",
		TranslatedContent: "first rendering",
		CreatedAt:         now,
		ExpiresAt:         now + 3600,
	}))

	// A second save for the same key refreshes the row in place.
	require.NoError(t, cache.Save(ctx, &model.TranslationCacheEntry{
		SourceContentHash: hash,
		SourceLanguage:    "en",
		TargetLanguage:    "ur",
		TranslatedContent: "second rendering",
		CreatedAt:         now + 10,
		ExpiresAt:         now + 3610,
	}))

	entry, ok, err := cache.Get(ctx, hash, "ur")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second rendering", entry.TranslatedContent)
	require.Equal(t, now+3610, entry.ExpiresAt)

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM translation_cache WHERE source_content_hash = $1 AND target_language = $2",
		hash, "ur").Scan(&count))
	require.Equal(t, 1, count)
}

func TestTranslationCacheRepoDeleteExpiredBefore(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	cache := repo.NewTranslationCacheRepo(db)
	ctx := context.Background()
	now := time.Now().Unix()

	longGone := service.ContentHash("long gone", "ur")
	stillLive := service.ContentHash("still live", "ur")
	require.NoError(t, cache.Save(ctx, &model.TranslationCacheEntry{
		SourceContentHash: longGone,
		SourceLanguage:    "en",
		TargetLanguage:    "ur",
		TranslatedContent: "old",
		CreatedAt:         now - 20*24*3600,
		ExpiresAt:         now - 19*24*3600,
	}))
	require.NoError(t, cache.Save(ctx, &model.TranslationCacheEntry{
		SourceContentHash: stillLive,
		SourceLanguage:    "en",
		TargetLanguage:    "ur",
		TranslatedContent: "fresh",
		CreatedAt:         now,
		ExpiresAt:         now + 3600,
	}))

	deleted, err := cache.DeleteExpiredBefore(ctx, now-7*24*3600)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(1))

	_, ok, err := cache.Get(ctx, longGone, "ur")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = cache.Get(ctx, stillLive, "ur")
	require.NoError(t, err)
	require.True(t, ok)
}
