package model

// ContentChunk is one retrievable unit of textbook content. ID is the
// document stem and must stay unique within a collection: re-ingesting the
// same ID overwrites the stored point instead of duplicating it.
type ContentChunk struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata"`
}
