package embed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"proprag/internal/providers"

	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
	lastReq providers.EmbedRequest
}

func (s *stubEmbedder) Embed(_ context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, providers.ProviderInfo{}, s.err
	}
	return s.vectors, providers.ProviderInfo{Name: "stub"}, nil
}

func TestProducerTruncatesLongInput(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{make([]float32, 8)}}
	p := NewProducer(stub, 8, 100)

	_, err := p.Embed(context.Background(), strings.Repeat("a", 250))
	require.NoError(t, err)
	require.Len(t, stub.lastReq.Inputs, 1)
	require.Equal(t, 100, utf8.RuneCountInString(stub.lastReq.Inputs[0]))
	require.Equal(t, 8, stub.lastReq.Dimension)
}

func TestProducerRejectsDimensionMismatch(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{make([]float32, 5)}}
	p := NewProducer(stub, 8, 100)

	_, err := p.Embed(context.Background(), "short text")
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestProducerWrapsProviderError(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("connection refused")}
	p := NewProducer(stub, 8, 100)

	_, err := p.Embed(context.Background(), "short text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "embedding service")
}

func TestProducerRejectsEmptyVector(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{}}
	p := NewProducer(stub, 8, 100)

	_, err := p.Embed(context.Background(), "short text")
	require.Error(t, err)
}
