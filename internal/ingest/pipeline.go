package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/xxxsen/tutorbook/internal/ai"
	"github.com/xxxsen/tutorbook/internal/model"
	"github.com/xxxsen/tutorbook/internal/vectorindex"
)

var contentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Pipeline loads textbook chapters from a directory into the vector index,
// one chunk per document. Documents that cannot be read are skipped with a
// warning; the rest of the batch still goes in.
type Pipeline struct {
	embedder   ai.IEmbedder
	index      vectorindex.Index
	collection string
	dim        int
}

func NewPipeline(embedder ai.IEmbedder, index vectorindex.Index, collection string, dim int) *Pipeline {
	return &Pipeline{
		embedder:   embedder,
		index:      index,
		collection: collection,
		dim:        dim,
	}
}

func (p *Pipeline) Run(ctx context.Context, dir string) (int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("dir", dir))
	if err := p.index.EnsureCollection(ctx, p.collection, p.dim, vectorindex.MetricCosine); err != nil {
		return 0, fmt.Errorf("ensure collection %s: %w", p.collection, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read ingest dir: %w", err)
	}
	var chunks []model.ContentChunk
	for _, entry := range entries {
		if entry.IsDir() || !contentExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		chunk, err := p.loadChunk(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn("skipping unreadable document", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		chunks = append(chunks, chunk)
	}
	points := make([]vectorindex.Point, 0, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		emb, err := p.embedder.Embed(ctx, chunk.Text, ai.TaskRetrievalDocument)
		if err != nil {
			logger.Warn("skipping document: embedding failed", zap.String("id", chunk.ID), zap.Error(err))
			continue
		}
		chunk.Embedding = emb
		metadata := make(map[string]interface{}, len(chunk.Metadata))
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		points = append(points, vectorindex.Point{
			ID:     chunk.ID,
			Vector: emb,
			Payload: map[string]interface{}{
				"content":  chunk.Text,
				"metadata": metadata,
			},
		})
	}
	if len(points) == 0 {
		logger.Info("no documents ingested")
		return 0, nil
	}
	if err := p.index.Upsert(ctx, p.collection, points); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	logger.Info("documents ingested", zap.Int("count", len(points)))
	return len(points), nil
}

func (p *Pipeline) loadChunk(path string) (model.ContentChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ContentChunk{}, err
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	title := extractTitle(data)
	if title == "" {
		title = stem
	}
	return model.ContentChunk{
		ID:   stem,
		Text: fmt.Sprintf("Chapter: %s\n\n%s", title, string(data)),
		Metadata: map[string]string{
			"title":   title,
			"chapter": stem,
			"source":  "textbook",
		},
	}, nil
}

// extractTitle returns the text of the first level-1 heading, or "" when
// the document has none.
func extractTitle(source []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if heading, ok := node.(*ast.Heading); ok && heading.Level == 1 {
			return strings.TrimSpace(string(heading.Text(source)))
		}
	}
	return ""
}
