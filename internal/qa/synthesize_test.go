package qa

import (
	"context"
	"errors"
	"testing"

	"proprag/internal/models"
	"proprag/internal/providers"

	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	text  string
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _ providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error) {
	s.calls++
	if s.err != nil {
		return providers.CompletionResponse{}, providers.ProviderInfo{}, s.err
	}
	return providers.CompletionResponse{Text: s.text}, providers.ProviderInfo{Name: "stub"}, nil
}

func TestAggregateSourcesGroupsByDocument(t *testing.T) {
	sources := AggregateSources([]models.RetrievedChunk{
		candidate("d1", 2, 0.9),
		candidate("d1", 0, 0.6),
	})
	require.Len(t, sources, 1)
	require.Equal(t, "d1.pdf (sections: 1, 3)", sources[0].Filename)
	require.InDelta(t, 0.9, sources[0].Similarity, 1e-9)
}

func TestAggregateSourcesKeepsFirstSeenOrder(t *testing.T) {
	sources := AggregateSources([]models.RetrievedChunk{
		candidate("d2", 0, 0.8),
		candidate("d1", 1, 0.7),
		candidate("d2", 3, 0.65),
	})
	require.Len(t, sources, 2)
	require.Equal(t, "d2.pdf (sections: 1, 4)", sources[0].Filename)
	require.Equal(t, "d1.pdf (sections: 2)", sources[1].Filename)
}

func TestSynthesizeConfidenceBands(t *testing.T) {
	llm := &stubCompleter{text: "The March bill was $142.75."}
	s := NewSynthesizer(llm, 0.6, 0.75)

	high := s.Synthesize(context.Background(), "q", "ctx", []models.RetrievedChunk{
		candidate("d1", 0, 0.85), candidate("d1", 1, 0.77),
	})
	require.Equal(t, models.ConfidenceHigh, high.Confidence)

	medium := s.Synthesize(context.Background(), "q", "ctx", []models.RetrievedChunk{
		candidate("d1", 0, 0.7), candidate("d1", 1, 0.6),
	})
	require.Equal(t, models.ConfidenceMedium, medium.Confidence)

	low := s.Synthesize(context.Background(), "q", "ctx", []models.RetrievedChunk{
		candidate("d1", 0, 0.5), candidate("d1", 1, 0.45),
	})
	require.Equal(t, models.ConfidenceLow, low.Confidence)
}

func TestSynthesizeCompletionFailure(t *testing.T) {
	llm := &stubCompleter{err: errors.New("service unavailable")}
	s := NewSynthesizer(llm, 0.6, 0.75)

	out := s.Synthesize(context.Background(), "q", "ctx", []models.RetrievedChunk{candidate("d1", 0, 0.8)})
	require.Equal(t, models.ConfidenceError, out.Confidence)
	require.Contains(t, out.Answer, "Sorry, I encountered an error generating the answer")
	require.Empty(t, out.Sources)
}

func TestSynthesizeAttachesSources(t *testing.T) {
	llm := &stubCompleter{text: "answer"}
	s := NewSynthesizer(llm, 0.6, 0.75)

	out := s.Synthesize(context.Background(), "q", "ctx", []models.RetrievedChunk{
		candidate("d1", 0, 0.8), candidate("d2", 2, 0.7),
	})
	require.Equal(t, "answer", out.Answer)
	require.Len(t, out.Sources, 2)
}
