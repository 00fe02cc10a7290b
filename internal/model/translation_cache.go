package model

type TranslationCacheEntry struct {
	SourceContentHash string `json:"source_content_hash"`
	SourceLanguage    string `json:"source_language"`
	TargetLanguage    string `json:"target_language"`
	TranslatedContent string `json:"translated_content"`
	CreatedAt         int64  `json:"created_at"`
	ExpiresAt         int64  `json:"expires_at"`
}
