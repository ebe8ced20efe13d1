package embed

import (
	"context"
	"errors"
	"fmt"

	"proprag/internal/providers"
)

// ErrDimensionMismatch marks a vector whose length does not match the
// configured embedding dimensionality. Malformed vectors are rejected, never
// silently accepted.
var ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")

// Producer is the single embedding chokepoint shared by the ingestion and
// query pipelines. Input beyond maxChars is truncated before the service
// call so a long chunk tail cannot cause an oversize-request failure.
type Producer struct {
	provider providers.EmbeddingProvider
	dim      int
	maxChars int
}

func NewProducer(provider providers.EmbeddingProvider, dim, maxChars int) *Producer {
	if dim <= 0 {
		dim = 1536
	}
	if maxChars <= 0 {
		maxChars = 8000
	}
	return &Producer{provider: provider, dim: dim, maxChars: maxChars}
}

func (p *Producer) Dimension() int {
	return p.dim
}

func (p *Producer) Embed(ctx context.Context, text string) ([]float32, error) {
	if runes := []rune(text); len(runes) > p.maxChars {
		text = string(runes[:p.maxChars])
	}
	vectors, _, err := p.provider.Embed(ctx, providers.EmbedRequest{
		Operation: "embed",
		Inputs:    []string{text},
		Dimension: p.dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector")
	}
	if len(vectors[0]) != p.dim {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vectors[0]), p.dim)
	}
	return vectors[0], nil
}
