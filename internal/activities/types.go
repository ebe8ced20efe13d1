package activities

import "proprag/internal/models"

type ExtractTextInput struct {
	Path string `json:"path"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type ExtractMetadataInput struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

type ExtractMetadataOutput struct {
	Result models.MetadataResult `json:"result"`
}

type ChunkTextInput struct {
	Text         string `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type ChunkTextOutput struct {
	Chunks []models.ChunkSpan `json:"chunks"`
}

type EmbedChunksInput struct {
	Chunks []models.ChunkSpan `json:"chunks"`
}

// EmbedChunksOutput carries one vector slot per input chunk; a nil slot means
// that chunk's embedding failed and it will be stored unsearchable.
type EmbedChunksOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	Failed       int         `json:"failed"`
	ProviderName string      `json:"provider_name"`
}

type StoreDocumentInput struct {
	DocumentID string                `json:"document_id"`
	OwnerID    string                `json:"owner_id"`
	Text       string                `json:"text"`
	Metadata   models.MetadataResult `json:"metadata"`
}

type StoreChunksInput struct {
	DocumentID string             `json:"document_id"`
	OwnerID    string             `json:"owner_id"`
	Chunks     []models.ChunkSpan `json:"chunks"`
	Vectors    [][]float32        `json:"vectors"`
}

type UpdateDocumentStatusInput struct {
	DocumentID string `json:"document_id"`
	OwnerID    string `json:"owner_id"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}
