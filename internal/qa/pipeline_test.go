package qa

import (
	"context"
	"errors"
	"testing"

	"proprag/internal/auth"
	"proprag/internal/models"

	"github.com/stretchr/testify/require"
)

type stubQueryEmbedder struct {
	vec []float32
	err error
}

func (s *stubQueryEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

type stubRetriever struct {
	results   []models.RetrievedChunk
	err       error
	lastOwner string
}

func (s *stubRetriever) SearchChunks(_ context.Context, ownerID string, _ []float32, _ float64, _ int) ([]models.RetrievedChunk, error) {
	s.lastOwner = ownerID
	return s.results, s.err
}

func testPipeline(embedder Embedder, retriever Retriever, llm *stubCompleter) *Pipeline {
	return NewPipeline(embedder, retriever, NewSynthesizer(llm, 0.6, 0.75), PipelineConfig{})
}

func TestPipelineEmbedFailure(t *testing.T) {
	llm := &stubCompleter{text: "never"}
	p := testPipeline(&stubQueryEmbedder{err: errors.New("down")}, &stubRetriever{}, llm)

	out := p.Answer(context.Background(), auth.Identity{UserID: "u1"}, "what was the bill?")
	require.Equal(t, models.ConfidenceError, out.Confidence)
	require.Contains(t, out.Answer, "error processing your question")
	require.Zero(t, llm.calls)
}

func TestPipelineSearchFailure(t *testing.T) {
	llm := &stubCompleter{text: "never"}
	p := testPipeline(&stubQueryEmbedder{vec: []float32{0.1}}, &stubRetriever{err: errors.New("db down")}, llm)

	out := p.Answer(context.Background(), auth.Identity{UserID: "u1"}, "what was the bill?")
	require.Equal(t, models.ConfidenceError, out.Confidence)
	require.Zero(t, llm.calls)
}

func TestPipelineGateShortCircuitsSynthesis(t *testing.T) {
	llm := &stubCompleter{text: "never"}
	retriever := &stubRetriever{results: []models.RetrievedChunk{candidate("d1", 0, 0.35)}}
	p := testPipeline(&stubQueryEmbedder{vec: []float32{0.1}}, retriever, llm)

	out := p.Answer(context.Background(), auth.Identity{UserID: "u1"}, "anything about the lease")
	require.Equal(t, models.ConfidenceLow, out.Confidence)
	require.Contains(t, out.Answer, "I don't know based on the available documents")
	require.Zero(t, llm.calls)
}

func TestPipelineNoDocuments(t *testing.T) {
	llm := &stubCompleter{text: "never"}
	p := testPipeline(&stubQueryEmbedder{vec: []float32{0.1}}, &stubRetriever{}, llm)

	out := p.Answer(context.Background(), auth.Identity{UserID: "u1"}, "anything")
	require.Equal(t, models.ConfidenceNone, out.Confidence)
	require.Zero(t, llm.calls)
}

func TestPipelineHappyPath(t *testing.T) {
	llm := &stubCompleter{text: "The March electric bill was $142.75."}
	retriever := &stubRetriever{results: []models.RetrievedChunk{
		candidate("d1", 0, 0.85),
		candidate("d1", 2, 0.8),
	}}
	p := testPipeline(&stubQueryEmbedder{vec: []float32{0.1}}, retriever, llm)

	out := p.Answer(context.Background(), auth.Identity{UserID: "owner-7"}, "what was the electric bill in March?")
	require.Equal(t, 1, llm.calls)
	require.Equal(t, "owner-7", retriever.lastOwner)
	require.Equal(t, "The March electric bill was $142.75.", out.Answer)
	require.Equal(t, models.ConfidenceHigh, out.Confidence)
	require.Len(t, out.Sources, 1)
	require.Equal(t, "d1.pdf (sections: 1, 3)", out.Sources[0].Filename)
}
