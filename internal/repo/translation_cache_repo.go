package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/tutorbook/internal/model"
	"github.com/xxxsen/tutorbook/internal/pkg/dbutil"
)

type TranslationCacheRepo struct {
	db *sql.DB
}

func NewTranslationCacheRepo(db *sql.DB) *TranslationCacheRepo {
	return &TranslationCacheRepo{db: db}
}

func (r *TranslationCacheRepo) Get(ctx context.Context, contentHash, targetLanguage string) (*model.TranslationCacheEntry, bool, error) {
	where := map[string]interface{}{
		"source_content_hash": contentHash,
		"target_language":     targetLanguage,
	}
	fields := []string{"source_content_hash", "source_language", "target_language", "translated_content", "created_at", "expires_at"}
	sqlStr, args, err := builder.BuildSelect("translation_cache", where, fields)
	if err != nil {
		return nil, false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var entry model.TranslationCacheEntry
	if err := row.Scan(
		&entry.SourceContentHash,
		&entry.SourceLanguage,
		&entry.TargetLanguage,
		&entry.TranslatedContent,
		&entry.CreatedAt,
		&entry.ExpiresAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &entry, true, nil
}

// Save inserts or refreshes the single live row for
// (source_content_hash, target_language). The unique-key upsert is what
// keeps concurrent writers for the same key collapsed into one row.
func (r *TranslationCacheRepo) Save(ctx context.Context, entry *model.TranslationCacheEntry) error {
	const query = `
		INSERT INTO translation_cache (source_content_hash, source_language, target_language, translated_content, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_content_hash, target_language) DO UPDATE SET
			translated_content = EXCLUDED.translated_content,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.SourceContentHash,
		entry.SourceLanguage,
		entry.TargetLanguage,
		entry.TranslatedContent,
		entry.CreatedAt,
		entry.ExpiresAt,
	)
	return err
}

// DeleteExpiredBefore garbage-collects rows whose expiry is older than the
// cutoff. Freshness itself is decided at read time, never here.
func (r *TranslationCacheRepo) DeleteExpiredBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM translation_cache WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
