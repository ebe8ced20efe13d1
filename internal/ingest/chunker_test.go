package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"proprag/internal/models"

	"github.com/stretchr/testify/require"
)

func TestChunkTextRejectsInvalidParameters(t *testing.T) {
	_, err := ChunkText("some text", 0, 0)
	require.Error(t, err)

	_, err = ChunkText("some text", -5, 0)
	require.Error(t, err)

	_, err = ChunkText("some text", 100, -1)
	require.Error(t, err)

	_, err = ChunkText("some text", 100, 100)
	require.Error(t, err)
}

func TestChunkTextEmptyInput(t *testing.T) {
	chunks, err := ChunkText("", 500, 50)
	require.NoError(t, err)
	require.Empty(t, chunks)

	chunks, err = ChunkText("   \n\n  \t ", 500, 50)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestChunkTextSingleShortParagraph(t *testing.T) {
	text := "  The roof at 123 Oak Street was repaired on March 3rd.  "
	chunks, err := ChunkText(text, 500, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "The roof at 123 Oak Street was repaired on March 3rd.", chunks[0].Text)
	require.Equal(t, 0, chunks[0].Index)
	require.Equal(t, 0, chunks[0].StartOffset)
}

func TestChunkTextParagraphPackingWithOverlap(t *testing.T) {
	para := strings.Repeat("lease term detail ", 5) // 90 chars
	text := para + "\n\n" + para + "\n\n" + para

	chunks, err := ChunkText(text, 200, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// First chunk holds the two paragraphs that fit; the third starts a new
	// chunk seeded with the tail of the first.
	require.Equal(t, strings.TrimSpace(para)+"\n\n"+strings.TrimSpace(para), chunks[0].Text)
	first := []rune(chunks[0].Text)
	seed := strings.TrimSpace(string(first[len(first)-20:]))
	require.True(t, strings.HasPrefix(chunks[1].Text, seed))
	require.Contains(t, chunks[1].Text, strings.TrimSpace(para))

	require.Equal(t, 0, chunks[0].Index)
	require.Equal(t, 1, chunks[1].Index)
	require.Equal(t, 0, chunks[0].StartOffset)
	require.Equal(t, 180, chunks[1].StartOffset)
}

func TestChunkTextOversizedParagraphResplitOnSentences(t *testing.T) {
	sentence := "This inspection covered the exterior walls and found minor wear."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 8))
	require.Greater(t, utf8.RuneCountInString(text), 300)

	chunks, err := ChunkText(text, 200, 0)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	limit := 200 + 200/2
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.LessOrEqual(t, utf8.RuneCountInString(c.Text), limit)
		require.Equal(t, 0, c.StartOffset)
	}
	// No sentence is lost across the re-split.
	require.Equal(t, 8, strings.Count(strings.Join(collectTexts(chunks), " "), "exterior walls"))
}

func TestChunkTextLoneOversizedSentenceKept(t *testing.T) {
	text := strings.Repeat("x", 900) // no sentence boundaries at all
	chunks, err := ChunkText(text, 200, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 900, utf8.RuneCountInString(chunks[0].Text))
	require.Equal(t, 0, chunks[0].Index)
}

func TestChunkTextIndicesContiguousAfterMixedResplit(t *testing.T) {
	sentence := "The vendor invoiced the unit for routine maintenance work done. "
	short := "Short closing note."
	text := strings.TrimSpace(strings.Repeat(sentence, 10)) + "\n\n" + short

	chunks, err := ChunkText(text, 200, 20)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.NotEmpty(t, c.Text)
	}
}

func collectTexts(chunks []models.ChunkSpan) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Text)
	}
	return out
}
