package providers

import (
	"context"
	"testing"

	"proprag/internal/config"

	"github.com/stretchr/testify/require"
)

func TestMockEmbedDeterministic(t *testing.T) {
	p := NewMockProvider(64)
	req := EmbedRequest{Operation: "embed", Inputs: []string{"electric bill for 123 Oak Street"}, Dimension: 64}

	a, _, err := p.Embed(context.Background(), req)
	require.NoError(t, err)
	b, _, err := p.Embed(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, a[0], 64)
	require.Equal(t, a, b)
}

func TestMockEmbedDistinctInputsDiffer(t *testing.T) {
	p := NewMockProvider(64)
	out, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"water bill", "lease agreement"}, Dimension: 64})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotEqual(t, out[0], out[1])
}

func TestMockCompleteMetadataOperationReturnsJSON(t *testing.T) {
	p := NewMockProvider(64)
	resp, info, err := p.Complete(context.Background(), CompletionRequest{Operation: "extract_metadata"})
	require.NoError(t, err)
	require.Equal(t, "mock", info.Name)
	require.Contains(t, resp.Text, `"property_name"`)
}

func TestManagerFallsBackToMock(t *testing.T) {
	m, err := NewManager(managerTestConfig("", ""))
	require.NoError(t, err)
	require.Equal(t, []int{0}, m.PreferredEmbedOrder())
	require.Equal(t, []int{0}, m.PreferredCompletionOrder())

	ep, epRef := m.EmbedProviderByIndex(0)
	require.NotNil(t, ep)
	require.Equal(t, "mock", epRef.Name)
	lp, lpRef := m.CompletionProviderByIndex(0)
	require.NotNil(t, lp)
	require.Equal(t, "mock", lpRef.Name)
}

func TestManagerPreferredOrderPutsMockLast(t *testing.T) {
	m, err := NewManager(managerTestConfig("mock|openai", "mock|openai"))
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, m.PreferredCompletionOrder())
	require.Equal(t, []int{1, 0}, m.PreferredEmbedOrder())
}

func managerTestConfig(llm, embed string) config.Config {
	return config.Config{LLMProviders: llm, EmbedProviders: embed, EmbedDim: 64}
}
