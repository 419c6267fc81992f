package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"learnbox-tutor/internal/logger"
	"learnbox-tutor/internal/rag"
)

// CleanupService retries cascading vector deletes for resources whose
// immediate delete failed. Delete-by-resource is idempotent, so re-running
// the sweep against an already-clean resource is harmless.
type CleanupService struct {
	scheduler *gocron.Scheduler
	resources *ResourceStore
	index     rag.VectorIndex
	interval  time.Duration
}

func NewCleanupService(resources *ResourceStore, index rag.VectorIndex, interval time.Duration) *CleanupService {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &CleanupService{
		scheduler: s,
		resources: resources,
		index:     index,
		interval:  interval,
	}
}

// Start schedules the sweep and returns immediately.
func (c *CleanupService) Start() error {
	if _, err := c.scheduler.Every(c.interval).Tag("vector-cleanup").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		c.Sweep(ctx)
	}); err != nil {
		return err
	}
	c.scheduler.StartAsync()
	logger.Info("vector cleanup sweep scheduled", "interval", c.interval.String())
	return nil
}

func (c *CleanupService) Stop() {
	c.scheduler.Stop()
}

// Sweep deletes vectors for every resource still flagged deleted, then drops
// the resource row once the delete succeeds.
func (c *CleanupService) Sweep(ctx context.Context) {
	pending, err := c.resources.ListDeleted(ctx)
	if err != nil {
		logger.Error("cleanup sweep: listing deleted resources failed", "error", err)
		return
	}

	for _, r := range pending {
		if err := c.index.DeleteByResource(ctx, r.ResourceID); err != nil {
			logger.Warn("cleanup sweep: vector delete failed, will retry",
				"resource_id", r.ResourceID, "error", err)
			continue
		}
		if err := c.resources.Remove(ctx, r.ResourceID); err != nil {
			logger.Warn("cleanup sweep: resource row removal failed",
				"resource_id", r.ResourceID, "error", err)
			continue
		}
		logger.Info("cleanup sweep: resource purged", "resource_id", r.ResourceID)
	}
}
