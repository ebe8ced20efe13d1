package activities

import (
	"context"
	"fmt"
	"log"

	"proprag/internal/config"
	"proprag/internal/embed"
	"proprag/internal/ingest"
	"proprag/internal/providers"
	"proprag/internal/storage"
	"proprag/internal/vector"
)

// Activities bundles the worker-side dependencies for the document
// ingestion pipeline.
type Activities struct {
	cfg       config.Config
	docRepo   *storage.DocumentRepo
	chunkRepo *storage.ChunkRepo
	extractor *ingest.MetadataExtractor
	producer  *embed.Producer
	embedName string
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}

	llmOrder := pm.PreferredCompletionOrder()
	llm, llmRef := pm.CompletionProviderByIndex(llmOrder[0])
	embedOrder := pm.PreferredEmbedOrder()
	ep, embedRef := pm.EmbedProviderByIndex(embedOrder[0])
	log.Printf("ingestion worker using llm=%s embed=%s", llmRef.Raw, embedRef.Raw)

	return &Activities{
		cfg:       cfg,
		docRepo:   storage.NewDocumentRepo(db),
		chunkRepo: storage.NewChunkRepo(db),
		extractor: ingest.NewMetadataExtractor(llm),
		producer:  embed.NewProducer(ep, cfg.EmbedDim, cfg.EmbedMaxChars),
		embedName: embedRef.Raw,
	}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	text, err := ingest.ExtractTextFromFile(in.Path)
	if err != nil {
		return ExtractTextOutput{}, err
	}
	return ExtractTextOutput{Text: text}, nil
}

// ExtractMetadataActivity never fails the pipeline: extraction errors come
// back as a degraded result with all fields null.
func (a *Activities) ExtractMetadataActivity(ctx context.Context, in ExtractMetadataInput) (ExtractMetadataOutput, error) {
	result := a.extractor.Extract(ctx, in.Text, in.Filename)
	if result.Degraded {
		log.Printf("metadata extraction degraded for %s: %s", in.Filename, result.Reason)
	}
	return ExtractMetadataOutput{Result: result}, nil
}

func (a *Activities) ChunkTextActivity(ctx context.Context, in ChunkTextInput) (ChunkTextOutput, error) {
	size := in.ChunkSize
	if size <= 0 {
		size = a.cfg.ChunkSize
	}
	overlap := in.ChunkOverlap
	if overlap < 0 {
		overlap = a.cfg.ChunkOverlap
	}
	chunks, err := ingest.ChunkText(in.Text, size, overlap)
	if err != nil {
		return ChunkTextOutput{}, err
	}
	return ChunkTextOutput{Chunks: chunks}, nil
}

// EmbedChunksActivity embeds each chunk independently. Retryable provider
// errors (rate limits, timeouts) fail the activity so the retry policy can
// re-run it; a chunk rejected permanently keeps its slot with a nil vector so
// it is still persisted, just excluded from similarity search.
func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	out := EmbedChunksOutput{
		Vectors:      make([][]float32, len(in.Chunks)),
		ProviderName: a.embedName,
	}
	for i, chunk := range in.Chunks {
		if err := ctx.Err(); err != nil {
			return EmbedChunksOutput{}, err
		}
		vec, err := a.producer.Embed(ctx, chunk.Text)
		if err != nil {
			if providers.IsRetryable(err) {
				return EmbedChunksOutput{}, fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
			}
			log.Printf("embedding failed for chunk %d (%s): %v", chunk.Index, providers.ClassifyError(err), err)
			out.Failed++
			continue
		}
		out.Vectors[i] = vec
	}
	return out, nil
}

func (a *Activities) StoreDocumentActivity(ctx context.Context, in StoreDocumentInput) error {
	if err := a.docRepo.SetProcessed(ctx, in.DocumentID, in.OwnerID, in.Text, in.Metadata.Metadata); err != nil {
		return fmt.Errorf("store document %s: %w", in.DocumentID, err)
	}
	return nil
}

func (a *Activities) StoreChunksActivity(ctx context.Context, in StoreChunksInput) error {
	records := make([]storage.ChunkRecord, len(in.Chunks))
	for i, chunk := range in.Chunks {
		var literal *string
		if i < len(in.Vectors) && in.Vectors[i] != nil {
			l := vector.ToLiteral(in.Vectors[i])
			literal = &l
		}
		records[i] = storage.ChunkRecord{
			DocumentID:      in.DocumentID,
			OwnerID:         in.OwnerID,
			ChunkIndex:      chunk.Index,
			Text:            chunk.Text,
			StartOffset:     chunk.StartOffset,
			EmbeddingVector: literal,
		}
	}
	if err := a.chunkRepo.InsertChunks(ctx, records); err != nil {
		return fmt.Errorf("store chunks for %s: %w", in.DocumentID, err)
	}
	return nil
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	if err := a.docRepo.UpdateStatus(ctx, in.DocumentID, in.OwnerID, in.Status, in.FailReason); err != nil {
		return fmt.Errorf("update status for %s: %w", in.DocumentID, err)
	}
	return nil
}
