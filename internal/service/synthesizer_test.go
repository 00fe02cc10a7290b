package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplateSynthesizerNoContext(t *testing.T) {
	synth := NewTemplateSynthesizer()
	ctx := context.Background()
	query := "What is inverse kinematics?"

	fromEmpty := synth.Synthesize(ctx, query, RetrievalResult{Context: "", Found: false})
	fromFallback := synth.Synthesize(ctx, query, RetrievalResult{Context: FallbackContext, Found: false})

	require.Equal(t, fromEmpty, fromFallback)
	require.Contains(t, fromEmpty, "'"+query+"'")
	require.Contains(t, fromEmpty, "couldn't find specific content")
}

func TestTemplateSynthesizerBoundsContext(t *testing.T) {
	synth := NewTemplateSynthesizer()
	ctx := context.Background()
	longContext := strings.Repeat("k", 1200)

	out := synth.Synthesize(ctx, "q", RetrievalResult{Context: longContext, Found: true})
	require.Contains(t, out, "'q'")
	require.Contains(t, out, longContext[:contextPreviewLimit])
	require.NotContains(t, out, strings.Repeat("k", contextPreviewLimit+1))
	require.True(t, strings.HasSuffix(out, "..."))
}

func TestTemplateSynthesizerDeterministic(t *testing.T) {
	synth := NewTemplateSynthesizer()
	ctx := context.Background()
	retrieval := RetrievalResult{Context: "Chapter: Sensors\n\nSensor fusion basics.", Found: true}

	first := synth.Synthesize(ctx, "how do sensors work", retrieval)
	second := synth.Synthesize(ctx, "how do sensors work", retrieval)
	require.Equal(t, first, second)
	require.Contains(t, first, "Sensor fusion basics.")
}
