package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

type localConfig struct {
	Dim int `json:"dim"`
}

// localEmbedProvider is a deterministic, dependency-free embedder used for
// offline runs and tests. It hashes tokens into a fixed-size bag-of-words
// vector and L2-normalizes it, so identical text always embeds identically
// and texts sharing terms score higher under cosine similarity.
type localEmbedProvider struct {
	dim int
}

func (p *localEmbedProvider) Name() string {
	return "local"
}

func (p *localEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	dim := p.dim
	if dim <= 0 {
		dim = 384
	}
	vec := make([]float32, dim)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%dim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func createLocalEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &localEmbedProvider{dim: cfg.Dim}, nil
}

func init() {
	RegisterEmbed("local", createLocalEmbedFactory)
}
