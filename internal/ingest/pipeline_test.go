package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/tutorbook/internal/ai"
	"github.com/xxxsen/tutorbook/internal/service"
	"github.com/xxxsen/tutorbook/internal/vectorindex"
)

func newTestEmbedder(t *testing.T) ai.IEmbedder {
	t.Helper()
	provider, err := ai.NewEmbedProvider("local", map[string]interface{}{"dim": 64})
	require.NoError(t, err)
	return ai.NewEmbedder(provider, "local-bow")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestPipelineIngestAndRetrieve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ch1.md", "# Kinematics\n\nKinematics describes the motion of robot joints and links without considering forces.")
	writeFile(t, dir, "ch2.md", "# Sensors\n\nSensors let a robot perceive its environment through cameras and IMUs.")

	embedder := newTestEmbedder(t)
	idx := vectorindex.NewMemoryIndex()
	pipeline := NewPipeline(embedder, idx, "textbook_content", 64)
	ctx := context.Background()

	count, err := pipeline.Run(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	retrieval := service.NewRetrievalService(embedder, idx, "textbook_content")
	hits, err := retrieval.Search(ctx, "What is kinematics?", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "ch1", hits[0].ID)
	require.Equal(t, "ch2", hits[1].ID)
	require.Greater(t, hits[0].Score, hits[1].Score)

	res := retrieval.RetrieveContext(ctx, "What is kinematics?", 5)
	require.True(t, res.Found)
	require.Contains(t, res.Context, "Chapter: Kinematics")
}

func TestPipelineReingestOverwrites(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ch1.md", "# Kinematics\n\nOriginal body.")

	embedder := newTestEmbedder(t)
	idx := vectorindex.NewMemoryIndex()
	pipeline := NewPipeline(embedder, idx, "textbook_content", 64)
	ctx := context.Background()

	_, err := pipeline.Run(ctx, dir)
	require.NoError(t, err)
	writeFile(t, dir, "ch1.md", "# Kinematics\n\nRevised body.")
	_, err = pipeline.Run(ctx, dir)
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "textbook_content", mustEmbed(t, embedder, "kinematics revised"), 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Contains(t, hits[0].Payload["content"], "Revised body.")
}

func TestPipelineTitleFallbackToStem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "appendix-a.txt", "No heading here, just plain notes.")

	embedder := newTestEmbedder(t)
	idx := vectorindex.NewMemoryIndex()
	pipeline := NewPipeline(embedder, idx, "textbook_content", 64)
	ctx := context.Background()

	count, err := pipeline.Run(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	hits, err := idx.Search(ctx, "textbook_content", mustEmbed(t, embedder, "plain notes"), 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "appendix-a", hits[0].ID)
	require.Contains(t, hits[0].Payload["content"], "Chapter: appendix-a\n\n")
	metadata, ok := hits[0].Payload["metadata"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "appendix-a", metadata["title"])
	require.Equal(t, "textbook", metadata["source"])
}

func TestPipelineSkipsUnreadableAndUnknownFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ch1.md", "# Kinematics\n\nBody.")
	writeFile(t, dir, "notes.json", `{"ignored": true}`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.md"), 0o755))
	// Dangling symlink: matches the extension filter but cannot be read.
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "broken.md")))

	pipeline := NewPipeline(newTestEmbedder(t), vectorindex.NewMemoryIndex(), "textbook_content", 64)
	count, err := pipeline.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestExtractTitle(t *testing.T) {
	require.Equal(t, "Control Theory", extractTitle([]byte("# Control Theory\n\nBody text.")))
	require.Equal(t, "", extractTitle([]byte("## Only a subsection\n\nBody.")))
	require.Equal(t, "", extractTitle([]byte("no headings at all")))
}

func mustEmbed(t *testing.T, embedder ai.IEmbedder, text string) []float32 {
	t.Helper()
	vec, err := embedder.Embed(context.Background(), text, ai.TaskRetrievalQuery)
	require.NoError(t, err)
	return vec
}
