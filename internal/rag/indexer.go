package rag

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultUpsertBatchSize is the provider-imposed maximum per upsert batch.
const DefaultUpsertBatchSize = 100

// Indexer persists a document into the vector index: split, embed, upsert.
type Indexer struct {
	embedder  EmbeddingClient
	index     VectorIndex
	chunkSize int
	overlap   int
	batchSize int
}

// NewIndexer wires an Indexer from injected collaborators. Non-positive
// parameters fall back to the defaults.
func NewIndexer(embedder EmbeddingClient, index VectorIndex, chunkSize, overlap, batchSize int) *Indexer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	return &Indexer{
		embedder:  embedder,
		index:     index,
		chunkSize: chunkSize,
		overlap:   overlap,
		batchSize: batchSize,
	}
}

// VectorID builds the wire-contract vector id for a chunk. Cascading delete
// relies on this scheme to target a document's vectors without a secondary
// index.
func VectorID(resourceID string, chunkIndex int) string {
	return fmt.Sprintf("%s-chunk-%d", resourceID, chunkIndex)
}

// Index splits text, embeds every chunk in order, and upserts the vectors in
// sequential batches. Returns the number of chunks indexed. A mid-batch
// failure aborts and surfaces IndexingFailed with the count of fully
// committed batches; already-written vectors stay visible to the caller for
// retry or cleanup.
func (ix *Indexer) Index(ctx context.Context, text string, meta DocumentMeta) (int, error) {
	tracer := otel.Tracer("rag-indexer")
	ctx, span := tracer.Start(ctx, "rag.index")
	defer span.End()
	span.SetAttributes(
		attribute.String("rag.resource_id", meta.ResourceID),
		attribute.String("rag.class_id", meta.ClassID),
		attribute.String("rag.subject", meta.Subject),
	)

	chunks, err := SplitText(text, ix.chunkSize, ix.overlap)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("rag.chunk_count", len(chunks)))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, &IndexingFailed{BatchesCommitted: 0, Err: err}
	}
	if len(vectors) != len(chunks) {
		return 0, &IndexingFailed{
			BatchesCommitted: 0,
			Err:              fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors)),
		}
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{
			ID:     VectorID(meta.ResourceID, c.Index),
			Vector: vectors[i],
			Metadata: ChunkMetadata{
				ResourceID: meta.ResourceID,
				Title:      meta.Title,
				ClassID:    meta.ClassID,
				Subject:    meta.Subject,
				Term:       meta.Term,
				ChunkIndex: c.Index,
				Text:       c.Text,
			},
		}
	}

	committed := 0
	for start := 0; start < len(records); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := ix.index.Upsert(ctx, records[start:end]); err != nil {
			span.SetAttributes(attribute.Int("rag.batches_committed", committed))
			return 0, &IndexingFailed{BatchesCommitted: committed, Err: err}
		}
		committed++
	}

	return len(chunks), nil
}
