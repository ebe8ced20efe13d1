package vector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"proprag/internal/models"

	"github.com/jackc/pgx/v5"
)

// Searcher runs owner-scoped nearest-neighbor search over chunk embeddings.
// Similarity is cosine, mapped to [0,1] via 1 - cosine distance.
type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchChunks returns up to limit candidates at or above threshold, ordered
// by descending similarity, each denormalized with its parent document's
// metadata. Chunks whose embedding failed at ingest (NULL) are invisible.
func (s *Searcher) SearchChunks(ctx context.Context, ownerID string, queryVec []float32, threshold float64, limit int) ([]models.RetrievedChunk, error) {
	if limit <= 0 {
		limit = 10
	}
	vecLiteral := ToLiteral(queryVec)

	query := `
SELECT c.document_id,
       c.chunk_index,
       c.chunk_text,
       1 - (c.embedding <=> $2::vector) AS similarity,
       d.filename,
       d.property_name,
       d.document_type,
       d.vendor,
       d.amount,
       d.document_date
FROM document_chunks c
JOIN documents d ON d.document_id = c.document_id
WHERE c.owner_id = $1
  AND c.embedding IS NOT NULL
  AND 1 - (c.embedding <=> $2::vector) >= $3
ORDER BY c.embedding <=> $2::vector
LIMIT $4`

	rows, err := s.q.Query(ctx, query, ownerID, vecLiteral, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.RetrievedChunk, 0, limit)
	for rows.Next() {
		var (
			r       models.RetrievedChunk
			docType *string
			docDate *time.Time
		)
		if err := rows.Scan(&r.DocumentID, &r.ChunkIndex, &r.Text, &r.Similarity, &r.Filename, &r.PropertyName, &docType, &r.Vendor, &r.Amount, &docDate); err != nil {
			return nil, fmt.Errorf("scan retrieved chunk: %w", err)
		}
		if docType != nil {
			t := models.DocumentType(*docType)
			r.DocumentType = &t
		}
		r.DocumentDate = docDate
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
