package storage

import (
	"context"
	"fmt"
	"time"

	"proprag/internal/models"
	"proprag/internal/util"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// RegisterPending inserts the document row at upload time, before the
// pipeline runs. Filenames are case-insensitively unique per owner; a
// collision surfaces as util.ErrDuplicateFilename so the caller can reject
// the upload without starting ingestion.
func (r *DocumentRepo) RegisterPending(ctx context.Context, doc models.Document) error {
	exists, err := r.FilenameExists(ctx, doc.OwnerID, doc.Filename)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", util.ErrDuplicateFilename, doc.Filename)
	}
	_, err = r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, owner_id, filename, file_content, status)
VALUES ($1, $2, $3, '', 'pending')`,
		doc.DocumentID, doc.OwnerID, doc.Filename,
	)
	if err != nil {
		return fmt.Errorf("register pending document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) FilenameExists(ctx context.Context, ownerID, filename string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM documents WHERE owner_id=$1 AND LOWER(filename)=LOWER($2)
)`, ownerID, filename).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check filename exists: %w", err)
	}
	return exists, nil
}

// SetProcessed writes the extracted text and metadata once the pipeline has
// run. Metadata fields stay NULL when extraction degraded.
func (r *DocumentRepo) SetProcessed(ctx context.Context, documentID, ownerID, content string, md models.Metadata) error {
	var docType *string
	if md.DocumentType != nil {
		s := string(*md.DocumentType)
		docType = &s
	}
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents
SET file_content=$3,
    property_name=$4,
    document_type=$5,
    vendor=$6,
    amount=$7,
    document_date=$8,
    status='processed',
    fail_reason=NULL,
    updated_at=NOW()
WHERE document_id=$1 AND owner_id=$2`,
		documentID, ownerID, content, md.PropertyName, docType, md.Vendor, md.Amount, md.DocumentDate,
	)
	if err != nil {
		return fmt.Errorf("set document processed: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, documentID, ownerID, status, failReason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$3, fail_reason=NULLIF($4,''), updated_at=NOW()
WHERE document_id=$1 AND owner_id=$2`, documentID, ownerID, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT document_id, owner_id, filename, property_name, document_type, vendor, amount, document_date,
       status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
WHERE owner_id=$1
ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var (
			d       models.Document
			docType *string
			docDate *time.Time
		)
		if err := rows.Scan(&d.DocumentID, &d.OwnerID, &d.Filename, &d.PropertyName, &docType, &d.Vendor, &d.Amount, &docDate, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if docType != nil {
			t := models.DocumentType(*docType)
			d.DocumentType = &t
		}
		d.DocumentDate = docDate
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// Delete removes a document the owner holds. Chunk rows go with it via the
// foreign key cascade. Returns false when nothing matched.
func (r *DocumentRepo) Delete(ctx context.Context, documentID, ownerID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
DELETE FROM documents WHERE document_id=$1 AND owner_id=$2`, documentID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DocumentRepo) StatsByOwner(ctx context.Context, ownerID string) (models.DocumentStats, error) {
	var stats models.DocumentStats
	err := r.db.Pool.QueryRow(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(amount), 0),
       ARRAY_REMOVE(ARRAY_AGG(DISTINCT property_name), NULL),
       ARRAY_REMOVE(ARRAY_AGG(DISTINCT document_type), NULL)
FROM documents
WHERE owner_id=$1`, ownerID).
		Scan(&stats.TotalDocuments, &stats.TotalAmount, &stats.Properties, &stats.DocumentTypes)
	if err != nil {
		return models.DocumentStats{}, fmt.Errorf("document stats: %w", err)
	}
	return stats, nil
}
