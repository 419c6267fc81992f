package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"learnbox-tutor/internal/logger"
	"learnbox-tutor/internal/rag"
	"learnbox-tutor/services"
)

const TaskIndexResource = "resource:index"

type IndexResourcePayload struct {
	ResourceID string `json:"resource_id"`
}

// NewIndexResourceTask enqueues background indexing for a stored resource.
// The payload carries only the id; the worker reloads the text from the
// document store.
func NewIndexResourceTask(resourceID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IndexResourcePayload{ResourceID: resourceID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIndexResource,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// IndexProcessor handles resource:index tasks.
type IndexProcessor struct {
	resources *services.ResourceStore
	indexer   *rag.Indexer
}

func NewIndexProcessor(resources *services.ResourceStore, indexer *rag.Indexer) *IndexProcessor {
	return &IndexProcessor{resources: resources, indexer: indexer}
}

func (p *IndexProcessor) HandleIndexResource(ctx context.Context, t *asynq.Task) error {
	var payload IndexResourcePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	resource, err := p.resources.Get(ctx, payload.ResourceID)
	if err != nil {
		return fmt.Errorf("load resource %s: %w", payload.ResourceID, err)
	}

	count, err := p.indexer.Index(ctx, resource.FullText, rag.DocumentMeta{
		ResourceID: resource.ResourceID,
		Title:      resource.Title,
		ClassID:    resource.ClassID,
		Subject:    resource.Subject,
		Term:       resource.Term,
	})
	if err != nil {
		if markErr := p.resources.MarkFailed(ctx, resource.ResourceID); markErr != nil {
			logger.Error("failed to mark resource failed", "resource_id", resource.ResourceID, "error", markErr)
		}
		return fmt.Errorf("index resource %s: %w", resource.ResourceID, err)
	}

	if err := p.resources.MarkIndexed(ctx, resource.ResourceID, count); err != nil {
		return fmt.Errorf("mark indexed %s: %w", resource.ResourceID, err)
	}

	logger.Info("resource indexed", "resource_id", resource.ResourceID, "chunks", count)
	return nil
}
