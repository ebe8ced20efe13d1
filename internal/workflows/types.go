package workflows

type IngestFile struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
	Filename   string `json:"filename"`
}

type BatchIngestInput struct {
	OwnerID               string       `json:"owner_id"`
	Files                 []IngestFile `json:"files"`
	MaxConcurrentChildren int          `json:"max_concurrent_children"`
	ChunkSize             int          `json:"chunk_size"`
	ChunkOverlap          int          `json:"chunk_overlap"`
}

type DocumentIngestInput struct {
	OwnerID      string `json:"owner_id"`
	DocumentID   string `json:"document_id"`
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type DocumentStatus struct {
	DocumentID     string            `json:"document_id"`
	Filename       string            `json:"filename"`
	CurrentStep    string            `json:"current_step"`
	Status         string            `json:"status"`
	FailReason     string            `json:"fail_reason,omitempty"`
	ChunksTotal    int               `json:"chunks_total"`
	ChunksEmbedded int               `json:"chunks_embedded"`
	Steps          map[string]string `json:"steps"`
}

type BatchIngestProgress struct {
	OwnerID       string            `json:"owner_id"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerDocument   map[string]string `json:"per_document_status"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
}
