package qa

import "proprag/internal/models"

const (
	noDocumentsAnswer  = "I don't know based on the available documents. I couldn't find any relevant information to answer your question."
	lowRelevanceAnswer = "I don't know based on the available documents. The information I found doesn't seem relevant enough to provide a confident answer."
)

// GateDecision is the relevance gate's verdict for one retrieval result.
// When Proceed is false, Terminal carries the complete user-facing answer
// and the completion service is never invoked.
type GateDecision struct {
	Proceed    bool
	Candidates []models.RetrievedChunk
	Terminal   models.Answer
}

// ApplyGate decides whether retrieved candidates justify an answer attempt.
// Zero candidates end the query with confidence "none". Otherwise the top
// maxChunks candidates are kept; if even the best of those scores below
// minTopSimilarity the query ends with confidence "low". Candidates arrive
// similarity-descending from the searcher.
func ApplyGate(candidates []models.RetrievedChunk, maxChunks int, minTopSimilarity float64) GateDecision {
	if len(candidates) == 0 {
		return GateDecision{Terminal: models.Answer{
			Answer:     noDocumentsAnswer,
			Sources:    []models.Source{},
			Confidence: models.ConfidenceNone,
		}}
	}
	if maxChunks <= 0 {
		maxChunks = 5
	}
	if len(candidates) > maxChunks {
		candidates = candidates[:maxChunks]
	}
	if candidates[0].Similarity < minTopSimilarity {
		return GateDecision{Terminal: models.Answer{
			Answer:     lowRelevanceAnswer,
			Sources:    []models.Source{},
			Confidence: models.ConfidenceLow,
		}}
	}
	return GateDecision{Proceed: true, Candidates: candidates}
}
