package workflows

import (
	"strings"
	"time"

	"proprag/internal/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetProgress       = "GetProgress"
	QueryGetDocumentStatus = "GetDocumentStatus"
)

// BatchIngestWorkflow fans a batch of uploaded documents out to child
// workflows, at most MaxConcurrentChildren at a time. One document failing
// never aborts the rest of the batch.
func BatchIngestWorkflow(ctx workflow.Context, input BatchIngestInput) (string, error) {
	progress := BatchIngestProgress{
		OwnerID:       input.OwnerID,
		Total:         len(input.Files),
		PerDocument:   map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (BatchIngestProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	for i := 0; i < len(input.Files); i += maxChildren {
		end := i + maxChildren
		if end > len(input.Files) {
			end = len(input.Files)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		batch := input.Files[i:end]
		for _, file := range batch {
			progress.PerDocument[file.DocumentID] = "processing"
			workflowID := "document-" + sanitizeID(input.OwnerID) + "-" + sanitizeID(file.DocumentID)
			cwo := workflow.ChildWorkflowOptions{WorkflowID: workflowID}
			childCtx := workflow.WithChildOptions(ctx, cwo)
			f := workflow.ExecuteChildWorkflow(childCtx, DocumentIngestWorkflow, DocumentIngestInput{
				OwnerID:      input.OwnerID,
				DocumentID:   file.DocumentID,
				Path:         file.Path,
				Filename:     file.Filename,
				ChunkSize:    input.ChunkSize,
				ChunkOverlap: input.ChunkOverlap,
			})
			futures = append(futures, f)
			progress.ChildWorkflow[file.DocumentID] = workflowID
		}

		// Done counts children that finished, whatever their outcome;
		// Failed is the subset that ended in a failed status.
		for idx, f := range futures {
			var childStatus string
			err := f.Get(ctx, &childStatus)
			docID := batch[idx].DocumentID
			progress.Done++
			if err != nil {
				progress.Failed++
				progress.PerDocument[docID] = "failed"
				// Children record their own graceful failures; a hard error
				// leaves the row at pending unless recorded here.
				_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
					DocumentID: docID,
					OwnerID:    input.OwnerID,
					Status:     "failed",
					FailReason: "document processing stopped after repeated errors: " + err.Error(),
				}).Get(ctx, nil)
				continue
			}
			if childStatus == "failed" {
				progress.Failed++
			}
			progress.PerDocument[docID] = childStatus
		}
	}

	return "completed", nil
}

// DocumentIngestWorkflow runs one document through the pipeline:
// extract text, extract metadata, chunk, embed, persist. Unreadable
// documents end in a recorded "failed" status without failing the workflow,
// so the batch can report them alongside successes.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (string, error) {
	status := DocumentStatus{
		DocumentID:  input.DocumentID,
		Filename:    input.Filename,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetDocumentStatus, func() (DocumentStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	status.CurrentStep = "extract_text"
	status.Steps[status.CurrentStep] = "processing"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{Path: input.Path}).Get(ctx, &textOut); err != nil {
		if reason, ok := extractionFailReason(err); ok {
			status.Status = "failed"
			status.FailReason = reason
			status.Steps[status.CurrentStep] = "failed"
			_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
				DocumentID: input.DocumentID,
				OwnerID:    input.OwnerID,
				Status:     "failed",
				FailReason: reason,
			}).Get(ctx, nil)
			return status.Status, nil
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "extract_metadata"
	status.Steps[status.CurrentStep] = "processing"
	var metaOut activities.ExtractMetadataOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractMetadataActivity", activities.ExtractMetadataInput{Text: textOut.Text, Filename: input.Filename}).Get(ctx, &metaOut); err != nil {
		return "", err
	}
	if metaOut.Result.Degraded {
		status.Steps[status.CurrentStep] = "degraded"
	} else {
		status.Steps[status.CurrentStep] = "done"
	}

	status.CurrentStep = "chunk_text"
	status.Steps[status.CurrentStep] = "processing"
	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{Text: textOut.Text, ChunkSize: input.ChunkSize, ChunkOverlap: input.ChunkOverlap}).Get(ctx, &chunkOut); err != nil {
		return "", err
	}
	status.ChunksTotal = len(chunkOut.Chunks)
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "embed_chunks"
	status.Steps[status.CurrentStep] = "processing"
	var embedOut activities.EmbedChunksOutput
	if err := workflow.ExecuteActivity(ctx, "EmbedChunksActivity", activities.EmbedChunksInput{Chunks: chunkOut.Chunks}).Get(ctx, &embedOut); err != nil {
		return "", err
	}
	status.ChunksEmbedded = len(chunkOut.Chunks) - embedOut.Failed
	if embedOut.Failed > 0 {
		status.Steps[status.CurrentStep] = "degraded"
	} else {
		status.Steps[status.CurrentStep] = "done"
	}

	status.CurrentStep = "store_document"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "StoreDocumentActivity", activities.StoreDocumentInput{
		DocumentID: input.DocumentID,
		OwnerID:    input.OwnerID,
		Text:       textOut.Text,
		Metadata:   metaOut.Result,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "store_chunks"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "StoreChunksActivity", activities.StoreChunksInput{
		DocumentID: input.DocumentID,
		OwnerID:    input.OwnerID,
		Chunks:     chunkOut.Chunks,
		Vectors:    embedOut.Vectors,
	}).Get(ctx, nil); err != nil {
		status.Status = "stored_degraded"
		status.FailReason = "document stored but its sections could not be indexed for search"
		status.Steps[status.CurrentStep] = "failed"
		_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
			DocumentID: input.DocumentID,
			OwnerID:    input.OwnerID,
			Status:     "stored_degraded",
			FailReason: status.FailReason,
		}).Get(ctx, nil)
		return status.Status, nil
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "done"
	status.Status = "processed"
	return status.Status, nil
}

// extractionFailReason maps extraction errors that are inherent to the file
// itself, not transient infrastructure, onto a user-facing explanation.
func extractionFailReason(err error) (string, bool) {
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "scanned"):
		return "document appears to be scanned images (OCR not enabled)", true
	case strings.Contains(e, "no extractable text"):
		return "no extractable text found in document", true
	}
	return "", false
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
