package job

import (
	"context"
	"time"

	"github.com/xxxsen/tutorbook/internal/repo"
)

// TranslationCacheCleanupJob garbage-collects translation cache rows that
// have been expired for longer than the grace period. Expiry itself is
// enforced lazily at read time; this only reclaims storage.
type TranslationCacheCleanupJob struct {
	repo      *repo.TranslationCacheRepo
	graceDays int
}

func NewTranslationCacheCleanupJob(repo *repo.TranslationCacheRepo, graceDays int) *TranslationCacheCleanupJob {
	return &TranslationCacheCleanupJob{repo: repo, graceDays: graceDays}
}

func (j *TranslationCacheCleanupJob) Name() string {
	return "translation_cache_cleanup"
}

func (j *TranslationCacheCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	graceDays := j.graceDays
	if graceDays <= 0 {
		graceDays = 7
	}
	cutoff := time.Now().Add(-time.Duration(graceDays) * 24 * time.Hour).Unix()
	_, err := j.repo.DeleteExpiredBefore(ctx, cutoff)
	return err
}
