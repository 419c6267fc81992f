package rag

import "context"

// ChunkMetadata travels with every stored vector. Text is duplicated into the
// metadata so retrieval never needs a second fetch against the document store.
type ChunkMetadata struct {
	ResourceID string `bson:"resource_id" json:"resource_id"`
	Title      string `bson:"title" json:"title"`
	ClassID    string `bson:"class_id" json:"class_id"`
	Subject    string `bson:"subject" json:"subject"`
	Term       string `bson:"term" json:"term"`
	ChunkIndex int    `bson:"chunk_index" json:"chunk_index"`
	Text       string `bson:"text" json:"text"`
}

// Record is one upsert unit for the vector index.
type Record struct {
	ID       string
	Vector   []float32
	Metadata ChunkMetadata
}

// Match is a scored retrieval hit. Ephemeral, produced per query.
type Match struct {
	ID       string
	Score    float64
	Metadata ChunkMetadata
}

// Scope restricts retrieval to a single class/subject pair. Both fields are
// matched by exact equality; a match outside the scope is a data-integrity
// bug, not a ranking problem.
type Scope struct {
	ClassID string
	Subject string
}

// Source is one citable document reference.
type Source struct {
	ResourceID string `json:"id"`
	Title      string `json:"title"`
}

// DocumentMeta identifies an uploaded resource during indexing.
type DocumentMeta struct {
	ResourceID string
	Title      string
	ClassID    string
	Subject    string
	Term       string
}

// EmbeddingClient converts text into fixed-length vectors.
// EmbedBatch must preserve input order.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the storage abstraction for chunk vectors.
// Query applies the scope as a hard equality filter before ranking.
type VectorIndex interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int, scope Scope) ([]Match, error)
	DeleteByResource(ctx context.Context, resourceID string) error
}

// Chat message roles understood by LanguageModel implementations.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a model conversation.
type Message struct {
	Role    string
	Content string
}

// LanguageModel produces a completion for an ordered message list.
type LanguageModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
