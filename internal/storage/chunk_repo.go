package storage

import (
	"context"
	"fmt"

	"proprag/internal/models"
)

// ChunkRecord is the persisted form of one chunk. EmbeddingVector is a
// pgvector literal; nil means the embedding call failed and the chunk is
// stored but unsearchable.
type ChunkRecord struct {
	DocumentID      string
	OwnerID         string
	ChunkIndex      int
	Text            string
	StartOffset     int
	EmbeddingVector *string
}

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) InsertChunks(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx insert chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
INSERT INTO document_chunks (document_id, owner_id, chunk_index, chunk_text, start_offset, embedding)
VALUES ($1, $2, $3, $4, $5, CASE WHEN $6::text IS NULL THEN NULL ELSE $6::vector END)
ON CONFLICT (document_id, chunk_index)
DO UPDATE SET
  chunk_text = EXCLUDED.chunk_text,
  start_offset = EXCLUDED.start_offset,
  embedding = COALESCE(EXCLUDED.embedding, document_chunks.embedding)`,
			c.DocumentID, c.OwnerID, c.ChunkIndex, c.Text, c.StartOffset, c.EmbeddingVector,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s/%d: %w", c.DocumentID, c.ChunkIndex, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, ownerID, documentID string) ([]models.Chunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT document_id, owner_id, chunk_index, chunk_text, start_offset, created_at
FROM document_chunks
WHERE owner_id=$1 AND document_id=$2
ORDER BY chunk_index ASC`, ownerID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Chunk, 0, 16)
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.DocumentID, &c.OwnerID, &c.ChunkIndex, &c.Text, &c.StartOffset, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
