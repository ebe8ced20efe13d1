package ingest

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"proprag/internal/models"
)

// ChunkText splits document text into overlapping retrieval units.
//
// Paragraphs (blank-line separated) are greedily accumulated up to targetSize
// characters; when a paragraph would overflow the buffer, the chunk is closed
// and the next one is seeded with the trailing overlap characters of the
// closed chunk so retrieval does not lose context at the boundary. Any chunk
// that still exceeds 1.5x targetSize is re-split on sentence boundaries
// without overlap, keeping the original chunk's start offset. Indices are
// contiguous from 0. A single sentence longer than the post-process limit
// stays as one oversized chunk.
//
// Empty or whitespace-only input yields an empty result, not an error.
func ChunkText(text string, targetSize, overlap int) ([]models.ChunkSpan, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("chunk target size must be positive, got %d", targetSize)
	}
	if overlap < 0 || overlap >= targetSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, target size), got overlap=%d target=%d", overlap, targetSize)
	}
	if strings.TrimSpace(text) == "" {
		return []models.ChunkSpan{}, nil
	}

	chunks := make([]models.ChunkSpan, 0, 8)
	appendChunk := func(body string) {
		chunks = append(chunks, models.ChunkSpan{
			Text:        strings.TrimSpace(body),
			Index:       len(chunks),
			StartOffset: len(chunks) * (targetSize - overlap),
		})
	}

	var current string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current != "" && runeLen(current)+runeLen(para)+2 > targetSize {
			appendChunk(current)
			if overlap > 0 {
				current = strings.TrimSpace(tailRunes(current, overlap)) + "\n\n" + para
			} else {
				current = para
			}
			continue
		}
		if current != "" {
			current += "\n\n" + para
		} else {
			current = para
		}
	}
	if strings.TrimSpace(current) != "" {
		appendChunk(current)
	}

	// Re-split anything still larger than 1.5x the target on sentence
	// boundaries. Re-split parts carry no overlap and share the offset of
	// the chunk they came from.
	limit := targetSize + targetSize/2
	final := make([]models.ChunkSpan, 0, len(chunks))
	for _, c := range chunks {
		if runeLen(c.Text) <= limit {
			final = append(final, c)
			continue
		}
		for _, part := range splitBySentences(c.Text, targetSize) {
			final = append(final, models.ChunkSpan{Text: part, StartOffset: c.StartOffset})
		}
	}
	for i := range final {
		final[i].Index = i
	}
	return final, nil
}

// splitBySentences greedily packs sentences into parts of at most targetSize
// characters. A lone sentence above the target is emitted as-is.
func splitBySentences(text string, targetSize int) []string {
	var out []string
	var current string
	for _, sentence := range splitSentences(text) {
		if current != "" && runeLen(current)+runeLen(sentence)+1 > targetSize {
			out = append(out, current)
			current = sentence
			continue
		}
		if current != "" {
			current += " " + sentence
		} else {
			current = sentence
		}
	}
	if strings.TrimSpace(current) != "" {
		out = append(out, current)
	}
	return out
}

// splitSentences breaks text on terminal punctuation followed by whitespace,
// keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if (ch == '.' || ch == '!' || ch == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			start = j
			i = j - 1
		}
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
