package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"proprag/internal/util"

	"github.com/stretchr/testify/require"
)

func TestExtractTextFromPlainTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Rent due: $950.\x00\x01\n\nPaid on time."), 0o644))

	text, err := ExtractTextFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "Rent due: $950.\n\nPaid on time.", text)
}

func TestExtractTextEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n \t "), 0o644))

	_, err := ExtractTextFromFile(path)
	require.ErrorIs(t, err, util.ErrNoExtractableText)
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractTextFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
