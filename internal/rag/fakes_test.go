package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// fakeEmbedder returns deterministic vectors and counts calls.
type fakeEmbedder struct {
	embedCalls int
	batchCalls int
	failBatch  bool
	failEmbed  bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.failEmbed {
		return nil, errors.New("embedding provider unavailable")
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	if f.failBatch {
		return nil, errors.New("embedding provider unavailable")
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), float32(i), 0}
	}
	return vectors, nil
}

// fakeIndex keeps records in a map keyed by vector id, so re-upserting an id
// overwrites instead of duplicating.
type fakeIndex struct {
	mu sync.Mutex

	records      map[string]Record
	upsertBatch  [][]Record
	failOnBatch  int // 1-based batch number to fail on; 0 disables
	queryResults []Match
	queryErr     error
	lastScope    Scope
	lastTopK     int
	deleted      []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string]Record)}
}

func (f *fakeIndex) Upsert(ctx context.Context, records []Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertBatch = append(f.upsertBatch, records)
	if f.failOnBatch > 0 && len(f.upsertBatch) == f.failOnBatch {
		return fmt.Errorf("upsert rejected on batch %d", f.failOnBatch)
	}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, topK int, scope Scope) ([]Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastScope = scope
	f.lastTopK = topK
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	// Enforce the scope filter like a real index would.
	out := make([]Match, 0, len(f.queryResults))
	for _, m := range f.queryResults {
		if m.Metadata.ClassID == scope.ClassID && m.Metadata.Subject == scope.Subject {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeIndex) DeleteByResource(ctx context.Context, resourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, resourceID)
	for id, r := range f.records {
		if r.Metadata.ResourceID == resourceID {
			delete(f.records, id)
		}
	}
	return nil
}

// fakeModel returns a canned completion and counts calls.
type fakeModel struct {
	reply    string
	err      error
	calls    int
	lastMsgs []Message
}

func (f *fakeModel) Complete(ctx context.Context, messages []Message) (string, error) {
	f.calls++
	f.lastMsgs = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
