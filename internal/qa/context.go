package qa

import (
	"fmt"
	"strings"

	"proprag/internal/models"
)

// BuildContext folds the ordered candidate list into one text block. The
// first chunk seen for a document emits that document's metadata header;
// later chunks from the same document add only their section marker and
// text. Emission follows the candidates' similarity-descending order, so a
// document's header position is driven by its best-ranked chunk.
func BuildContext(candidates []models.RetrievedChunk) string {
	var b strings.Builder
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		docKey := c.Filename + "_" + c.DocumentID
		if _, ok := seen[docKey]; !ok {
			seen[docKey] = struct{}{}
			b.WriteString(fmt.Sprintf("\n--- Document: %s ---\n", orUnknown(c.Filename)))
			b.WriteString(fmt.Sprintf("Property: %s\n", orUnknownPtr(c.PropertyName)))
			b.WriteString(fmt.Sprintf("Type: %s\n", orUnknownType(c.DocumentType)))
			if c.Vendor != nil {
				b.WriteString(fmt.Sprintf("Vendor: %s\n", *c.Vendor))
			}
			if c.Amount != nil {
				b.WriteString(fmt.Sprintf("Amount: $%.2f\n", *c.Amount))
			}
			if c.DocumentDate != nil {
				b.WriteString(fmt.Sprintf("Date: %s\n", c.DocumentDate.Format("2006-01-02")))
			}
			b.WriteString("Relevant sections:\n")
		}
		b.WriteString(fmt.Sprintf("  [Section %d, Relevance: %.1f%%]\n", c.ChunkIndex+1, c.Similarity*100))
		b.WriteString(fmt.Sprintf("  %s\n", c.Text))
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orUnknownPtr(s *string) string {
	if s == nil || *s == "" {
		return "Unknown"
	}
	return *s
}

func orUnknownType(t *models.DocumentType) string {
	if t == nil || *t == "" {
		return "Unknown"
	}
	return string(*t)
}
