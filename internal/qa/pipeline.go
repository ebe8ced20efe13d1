package qa

import (
	"context"
	"fmt"
	"log"

	"proprag/internal/auth"
	"proprag/internal/models"
)

// Embedder is the query-side view of the shared embedding producer.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever is the store's nearest-neighbor search boundary: owner-scoped,
// similarity-descending, bounded by threshold and limit.
type Retriever interface {
	SearchChunks(ctx context.Context, ownerID string, queryVec []float32, threshold float64, limit int) ([]models.RetrievedChunk, error)
}

type PipelineConfig struct {
	SearchThreshold  float64
	SearchLimit      int
	MaxContextChunks int
	MinTopSimilarity float64
}

// Pipeline is the full question-to-answer sequence: enhance, embed, retrieve,
// gate, assemble, synthesize. Every run is a pure function of its inputs and
// the two external services; no state is retained between invocations.
type Pipeline struct {
	embedder Embedder
	searcher Retriever
	synth    *Synthesizer
	cfg      PipelineConfig
}

func NewPipeline(embedder Embedder, searcher Retriever, synth *Synthesizer, cfg PipelineConfig) *Pipeline {
	if cfg.SearchThreshold <= 0 {
		cfg.SearchThreshold = 0.3
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = 5
	}
	if cfg.MinTopSimilarity <= 0 {
		cfg.MinTopSimilarity = 0.4
	}
	return &Pipeline{embedder: embedder, searcher: searcher, synth: synth, cfg: cfg}
}

// Answer runs one query for the authenticated caller. Failures never
// propagate past this boundary: every terminal state is a result value with
// a plain-language explanation.
func (p *Pipeline) Answer(ctx context.Context, identity auth.Identity, question string) models.Answer {
	enhanced := EnhanceQuestion(question)

	queryVec, err := p.embedder.Embed(ctx, enhanced)
	if err != nil {
		log.Printf("qa: embed question for user %s: %v", identity.UserID, err)
		return models.Answer{
			Answer:     "Sorry, I encountered an error processing your question.",
			Sources:    []models.Source{},
			Confidence: models.ConfidenceError,
		}
	}

	candidates, err := p.searcher.SearchChunks(ctx, identity.UserID, queryVec, p.cfg.SearchThreshold, p.cfg.SearchLimit)
	if err != nil {
		log.Printf("qa: search chunks for user %s: %v", identity.UserID, err)
		return models.Answer{
			Answer:     fmt.Sprintf("Sorry, I encountered an error searching your documents: %v", err),
			Sources:    []models.Source{},
			Confidence: models.ConfidenceError,
		}
	}

	decision := ApplyGate(candidates, p.cfg.MaxContextChunks, p.cfg.MinTopSimilarity)
	if !decision.Proceed {
		return decision.Terminal
	}

	contextBlock := BuildContext(decision.Candidates)
	return p.synth.Synthesize(ctx, question, contextBlock, decision.Candidates)
}
