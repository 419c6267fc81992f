package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeta = DocumentMeta{
	ResourceID: "res-42",
	Title:      "Photosynthesis Basics",
	ClassID:    "JSS 1",
	Subject:    "Basic Science",
	Term:       "2",
}

func TestIndexProducesVectorIDScheme(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	ix := NewIndexer(embedder, index, 1000, 200, 100)

	count, err := ix.Index(context.Background(), strings.Repeat("z", 2500), testMeta)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.Len(t, index.records, 4)
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("res-42-chunk-%d", i)
		r, ok := index.records[id]
		require.True(t, ok, "missing vector %s", id)
		assert.Equal(t, i, r.Metadata.ChunkIndex)
		assert.Equal(t, "res-42", r.Metadata.ResourceID)
		assert.Equal(t, "JSS 1", r.Metadata.ClassID)
		assert.Equal(t, "Basic Science", r.Metadata.Subject)
		assert.Equal(t, "Photosynthesis Basics", r.Metadata.Title)
		assert.NotEmpty(t, r.Metadata.Text)
	}
}

func TestIndexReindexOverwritesInsteadOfDuplicating(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	ix := NewIndexer(embedder, index, 1000, 200, 100)
	text := strings.Repeat("z", 2500)

	_, err := ix.Index(context.Background(), text, testMeta)
	require.NoError(t, err)
	first := len(index.records)

	_, err = ix.Index(context.Background(), text, testMeta)
	require.NoError(t, err)
	assert.Equal(t, first, len(index.records), "re-index must upsert, not duplicate")
}

func TestIndexBatchesUpserts(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	// 12 chunks with a batch cap of 5 means batches of 5, 5, 2.
	ix := NewIndexer(embedder, index, 100, 20, 5)

	count, err := ix.Index(context.Background(), strings.Repeat("q", 950), testMeta)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	require.Len(t, index.upsertBatch, 3)
	assert.Len(t, index.upsertBatch[0], 5)
	assert.Len(t, index.upsertBatch[1], 5)
	assert.Len(t, index.upsertBatch[2], 2)
}

func TestIndexAbortsOnBatchFailure(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	index.failOnBatch = 2
	ix := NewIndexer(embedder, index, 100, 20, 5)

	_, err := ix.Index(context.Background(), strings.Repeat("q", 950), testMeta)
	var ixErr *IndexingFailed
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, 1, ixErr.BatchesCommitted)
	// No further batches after the failure.
	assert.Len(t, index.upsertBatch, 2)
	// The first batch stays committed; cleanup is the caller's decision.
	assert.Len(t, index.records, 5)
}

func TestIndexEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{failBatch: true}
	index := newFakeIndex()
	ix := NewIndexer(embedder, index, 1000, 200, 100)

	_, err := ix.Index(context.Background(), strings.Repeat("z", 2500), testMeta)
	var ixErr *IndexingFailed
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, 0, ixErr.BatchesCommitted)
	assert.Empty(t, index.records)
}

func TestIndexInvalidChunkConfigSurfacesConfigError(t *testing.T) {
	ix := NewIndexer(&fakeEmbedder{}, newFakeIndex(), 100, 100, 10)
	// Constructor falls back silently only for non-positive values; equal
	// size and overlap reaches the chunker and must fail there.
	_, err := ix.Index(context.Background(), "text", testMeta)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestVectorID(t *testing.T) {
	assert.Equal(t, "abc-chunk-0", VectorID("abc", 0))
	assert.Equal(t, "abc-chunk-17", VectorID("abc", 17))
}
