package rag

import "fmt"

// ConfigError reports invalid chunking parameters. Caller-fixable, never
// retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid chunking config: " + e.Reason
}

// IndexingFailed reports an embedding or upsert failure during indexing.
// BatchesCommitted counts the upsert batches that fully succeeded before the
// failure; the document is left partially indexed and cleanup is the
// caller's job.
type IndexingFailed struct {
	BatchesCommitted int
	Err              error
}

func (e *IndexingFailed) Error() string {
	return fmt.Sprintf("indexing failed after %d committed batches: %v", e.BatchesCommitted, e.Err)
}

func (e *IndexingFailed) Unwrap() error { return e.Err }

// RetrievalFailed reports an embedding or vector-query failure during
// retrieval. An empty result set is not this error.
type RetrievalFailed struct {
	Err error
}

func (e *RetrievalFailed) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalFailed) Unwrap() error { return e.Err }

// GenerationFailed reports a language-model call failure. The caller must not
// fabricate an answer in its place.
type GenerationFailed struct {
	Err error
}

func (e *GenerationFailed) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationFailed) Unwrap() error { return e.Err }
