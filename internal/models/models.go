package models

import "time"

// Confidence describes how trustworthy a synthesized answer is. It is derived
// from retrieval similarity statistics, never from the model's self-report.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
	ConfidenceError  Confidence = "error"
)

// DocumentType is the closed vocabulary for classified documents. Values
// outside the known set pass through unchanged as an unmapped type.
type DocumentType string

const (
	TypeUtilityBill       DocumentType = "utility_bill"
	TypeInvoice           DocumentType = "invoice"
	TypeLease             DocumentType = "lease"
	TypeMaintenanceReport DocumentType = "maintenance_report"
	TypeInspectionReport  DocumentType = "inspection_report"
	TypeTaxDocument       DocumentType = "tax_document"
	TypeInsurance         DocumentType = "insurance"
)

type Document struct {
	DocumentID   string        `json:"document_id"`
	OwnerID      string        `json:"owner_id"`
	Filename     string        `json:"filename"`
	Content      string        `json:"content,omitempty"`
	PropertyName *string       `json:"property_name,omitempty"`
	DocumentType *DocumentType `json:"document_type,omitempty"`
	Vendor       *string       `json:"vendor,omitempty"`
	Amount       *float64      `json:"amount,omitempty"`
	DocumentDate *time.Time    `json:"document_date,omitempty"`
	Status       string        `json:"status"`
	FailReason   string        `json:"fail_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Metadata holds the structured fields extracted from a document's text.
// Every field is independently nullable; absence is not an error.
type Metadata struct {
	PropertyName *string       `json:"property_name"`
	DocumentType *DocumentType `json:"document_type"`
	Vendor       *string       `json:"vendor"`
	Amount       *float64      `json:"amount"`
	DocumentDate *time.Time    `json:"document_date"`
}

// MetadataResult is a tagged result: Degraded marks that extraction fell back
// to all-null metadata (service failure or malformed model output) so callers
// can tell "no metadata in the document" from "extraction broke".
type MetadataResult struct {
	Metadata Metadata `json:"metadata"`
	Degraded bool     `json:"degraded"`
	Reason   string   `json:"reason,omitempty"`
}

// ChunkSpan is one chunker output unit before persistence.
type ChunkSpan struct {
	Text        string `json:"text"`
	Index       int    `json:"index"`
	StartOffset int    `json:"start_offset"`
}

type Chunk struct {
	DocumentID  string    `json:"document_id"`
	OwnerID     string    `json:"owner_id"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	StartOffset int       `json:"start_offset"`
	CreatedAt   time.Time `json:"created_at"`
}

// RetrievedChunk is a query-time candidate: a chunk, its similarity in [0,1]
// and the denormalized metadata of its parent document. Never persisted.
type RetrievedChunk struct {
	DocumentID   string        `json:"document_id"`
	ChunkIndex   int           `json:"chunk_index"`
	Text         string        `json:"text"`
	Similarity   float64       `json:"similarity"`
	Filename     string        `json:"filename"`
	PropertyName *string       `json:"property_name,omitempty"`
	DocumentType *DocumentType `json:"document_type,omitempty"`
	Vendor       *string       `json:"vendor,omitempty"`
	Amount       *float64      `json:"amount,omitempty"`
	DocumentDate *time.Time    `json:"document_date,omitempty"`
}

// Source is one per-document entry in an answer's source list. Filename is
// annotated with the contributing 1-based section numbers and Similarity is
// the best score among contributing chunks.
type Source struct {
	Filename     string        `json:"filename"`
	PropertyName *string       `json:"property,omitempty"`
	DocumentType *DocumentType `json:"type,omitempty"`
	Vendor       *string       `json:"vendor,omitempty"`
	Amount       *float64      `json:"amount,omitempty"`
	Similarity   float64       `json:"similarity"`
}

type Answer struct {
	Answer     string     `json:"answer"`
	Sources    []Source   `json:"sources"`
	Confidence Confidence `json:"confidence"`
}

type DocumentStats struct {
	TotalDocuments int      `json:"total_documents"`
	Properties     []string `json:"properties"`
	DocumentTypes  []string `json:"document_types"`
	TotalAmount    float64  `json:"total_amount"`
}

type User struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
