package vector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToLiteral(t *testing.T) {
	require.Equal(t, "[]", ToLiteral(nil))
	require.Equal(t, "[0.500000]", ToLiteral([]float32{0.5}))
	require.Equal(t, "[0.500000,-1.000000,0.000000]", ToLiteral([]float32{0.5, -1, 0}))
}
