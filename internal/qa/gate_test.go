package qa

import (
	"testing"

	"proprag/internal/models"

	"github.com/stretchr/testify/require"
)

func candidate(docID string, index int, sim float64) models.RetrievedChunk {
	return models.RetrievedChunk{
		DocumentID: docID,
		ChunkIndex: index,
		Text:       "chunk text",
		Similarity: sim,
		Filename:   docID + ".pdf",
	}
}

func TestEnhanceQuestionAppendsKeywords(t *testing.T) {
	out := EnhanceQuestion("What was the electric BILL last month?")
	require.Contains(t, out, "What was the electric BILL last month?")
	require.Contains(t, out, "utility invoice payment amount cost")
}

func TestEnhanceQuestionCumulativeRules(t *testing.T) {
	out := EnhanceQuestion("How much is the bill for the Oak Street property?")
	require.Contains(t, out, "utility invoice payment amount cost")
	require.Contains(t, out, "property address location")
}

func TestEnhanceQuestionNoTriggers(t *testing.T) {
	q := "When does the lease end?"
	require.Equal(t, q, EnhanceQuestion(q))
}

func TestApplyGateNoCandidates(t *testing.T) {
	d := ApplyGate(nil, 5, 0.4)
	require.False(t, d.Proceed)
	require.Equal(t, models.ConfidenceNone, d.Terminal.Confidence)
	require.Contains(t, d.Terminal.Answer, "I don't know based on the available documents")
	require.Empty(t, d.Terminal.Sources)
}

func TestApplyGateLowTopSimilarity(t *testing.T) {
	d := ApplyGate([]models.RetrievedChunk{candidate("a", 0, 0.35), candidate("b", 1, 0.31)}, 5, 0.4)
	require.False(t, d.Proceed)
	require.Equal(t, models.ConfidenceLow, d.Terminal.Confidence)
	require.Contains(t, d.Terminal.Answer, "doesn't seem relevant enough")
}

func TestApplyGateTruncatesToMaxChunks(t *testing.T) {
	in := make([]models.RetrievedChunk, 0, 7)
	for i := 0; i < 7; i++ {
		in = append(in, candidate("doc", i, 0.9-float64(i)*0.05))
	}
	d := ApplyGate(in, 5, 0.4)
	require.True(t, d.Proceed)
	require.Len(t, d.Candidates, 5)
	require.InDelta(t, 0.9, d.Candidates[0].Similarity, 1e-9)
}

func TestApplyGateProceedsAtThreshold(t *testing.T) {
	d := ApplyGate([]models.RetrievedChunk{candidate("a", 0, 0.4)}, 5, 0.4)
	require.True(t, d.Proceed)
}
