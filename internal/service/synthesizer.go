package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/tutorbook/internal/ai"
)

// contextPreviewLimit bounds how much retrieved context is echoed back in a
// templated answer.
const contextPreviewLimit = 500

// Synthesizer turns a query plus retrieval result into the answer string.
// Implementations must be total: same inputs give the same output, and no
// input makes them fail.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, retrieval RetrievalResult) string
}

type templateSynthesizer struct{}

func NewTemplateSynthesizer() Synthesizer {
	return templateSynthesizer{}
}

func (templateSynthesizer) Synthesize(ctx context.Context, query string, retrieval RetrievalResult) string {
	if !retrieval.Found || retrieval.Context == "" {
		return noContextResponse(query)
	}
	preview := retrieval.Context
	if len(preview) > contextPreviewLimit {
		preview = preview[:contextPreviewLimit]
	}
	return fmt.Sprintf("Based on the textbook content, here's what I found about '%s': %s...", query, preview)
}

// generativeSynthesizer asks a language model to answer from the retrieved
// context, falling back to the deterministic template (and, on model
// failure, the apology template) so the contract above still holds.
type generativeSynthesizer struct {
	gen ai.IGenerator
}

func NewGenerativeSynthesizer(gen ai.IGenerator) Synthesizer {
	return &generativeSynthesizer{gen: gen}
}

func (g *generativeSynthesizer) Synthesize(ctx context.Context, query string, retrieval RetrievalResult) string {
	if !retrieval.Found || retrieval.Context == "" {
		return noContextResponse(query)
	}
	prompt := fmt.Sprintf(`You are a tutor for the Physical AI & Humanoid Robotics textbook.
Answer the question using ONLY the textbook excerpts below.
- Be concise and factual.
- If the excerpts do not answer the question, say so.

QUESTION:
%s

EXCERPTS:
%s`, query, retrieval.Context)
	answer, err := g.gen.Generate(ctx, prompt)
	if err != nil || answer == "" {
		logutil.GetLogger(ctx).Warn("generative synthesis failed, using apology template", zap.Error(err))
		return apologyResponse(query)
	}
	return answer
}

func noContextResponse(query string) string {
	return fmt.Sprintf("Based on the textbook content, I can help answer your question: '%s'. However, I couldn't find specific content to answer this question in detail right now. Please check other chapters or topics in the Physical AI & Humanoid Robotics textbook.", query)
}

func apologyResponse(query string) string {
	return fmt.Sprintf("I encountered an issue while generating a response for your query: '%s'. Please try asking in a different way or check other parts of the textbook.", query)
}
