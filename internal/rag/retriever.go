package rag

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultTopK is the retrieval depth used when the caller passes none.
const DefaultTopK = 5

// Retriever fetches the most relevant chunks for a query, hard-scoped to one
// class and subject.
type Retriever struct {
	embedder EmbeddingClient
	index    VectorIndex
}

func NewRetriever(embedder EmbeddingClient, index VectorIndex) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve embeds the query and runs a filtered nearest-neighbor search.
// Matches come back most relevant first, in provider score order. Zero
// matches is a valid result, not an error: it means the topic is not covered
// by the indexed curriculum, and callers must not synthesize an answer from
// it.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope Scope, topK int) ([]Match, error) {
	tracer := otel.Tracer("rag-retriever")
	ctx, span := tracer.Start(ctx, "rag.retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("rag.class_id", scope.ClassID),
		attribute.String("rag.subject", scope.Subject),
	)

	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &RetrievalFailed{Err: err}
	}

	matches, err := r.index.Query(ctx, vector, topK, scope)
	if err != nil {
		return nil, &RetrievalFailed{Err: err}
	}

	// Providers already rank by similarity; the stable sort enforces the
	// descending contract without disturbing provider tie order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	span.SetAttributes(attribute.Int("rag.match_count", len(matches)))
	return matches, nil
}
