package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"learnbox-tutor/internal/config"
	"learnbox-tutor/internal/logger"
	"learnbox-tutor/internal/queue"
	"learnbox-tutor/internal/rag"
	"learnbox-tutor/internal/telemetry"
	"learnbox-tutor/models"
	"learnbox-tutor/services"
	"learnbox-tutor/utils"
)

// SetupResourceRoutes wires the teacher upload path (write side) and
// cascading delete. Raw file parsing happens upstream; this surface accepts
// extracted plain text plus metadata.
func SetupResourceRoutes(
	router *gin.Engine,
	cfg *config.Config,
	resources *services.ResourceStore,
	indexer *rag.Indexer,
	index rag.VectorIndex,
	queueClient *asynq.Client,
	metrics *telemetry.Metrics,
) {
	group := router.Group("/resources")

	group.POST("", func(c *gin.Context) {
		var req models.UploadResourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		term := req.Term
		if term == "" {
			term = "1"
		}

		resource := models.Resource{
			ResourceID: uuid.NewString(),
			Title:      req.Title,
			ClassID:    req.ClassID,
			Subject:    req.Subject,
			Term:       term,
			FullText:   req.Text,
			Status:     models.ResourceStatusPending,
			UploadedAt: time.Now(),
		}

		ctx := c.Request.Context()
		if err := resources.Insert(ctx, resource); err != nil {
			logger.Error("failed to store resource", "title", req.Title, "error", err)
			utils.RespondWithInternalError(c, "Failed to store resource")
			return
		}

		// Large documents go through the worker; small ones index inline so
		// the teacher sees the chunk count immediately.
		if queueClient != nil && len(req.Text) > cfg.SyncIndexLimit {
			task, err := queue.NewIndexResourceTask(resource.ResourceID)
			if err == nil {
				_, err = queueClient.Enqueue(task)
			}
			if err != nil {
				logger.Error("failed to enqueue index task", "resource_id", resource.ResourceID, "error", err)
				utils.RespondWithInternalError(c, "Failed to schedule indexing")
				return
			}
			c.JSON(http.StatusAccepted, models.UploadResourceResponse{
				ResourceID: resource.ResourceID,
				Status:     "queued",
			})
			return
		}

		count, err := indexer.Index(ctx, req.Text, rag.DocumentMeta{
			ResourceID: resource.ResourceID,
			Title:      resource.Title,
			ClassID:    resource.ClassID,
			Subject:    resource.Subject,
			Term:       resource.Term,
		})
		if err != nil {
			var ixErr *rag.IndexingFailed
			if errors.As(err, &ixErr) {
				logger.Error("indexing failed",
					"resource_id", resource.ResourceID,
					"batches_committed", ixErr.BatchesCommitted,
					"error", err)
			} else {
				logger.Error("indexing failed", "resource_id", resource.ResourceID, "error", err)
			}
			if markErr := resources.MarkFailed(ctx, resource.ResourceID); markErr != nil {
				logger.Error("failed to mark resource failed", "resource_id", resource.ResourceID, "error", markErr)
			}
			utils.RespondWithInternalError(c, "Failed to index resource")
			return
		}

		if err := resources.MarkIndexed(ctx, resource.ResourceID, count); err != nil {
			logger.Error("failed to mark resource indexed", "resource_id", resource.ResourceID, "error", err)
		}
		if metrics != nil {
			metrics.ChunksIndexed.Add(ctx, int64(count))
		}

		c.JSON(http.StatusCreated, models.UploadResourceResponse{
			ResourceID:    resource.ResourceID,
			Status:        models.ResourceStatusIndexed,
			ChunksIndexed: count,
		})
	})

	group.GET("", func(c *gin.Context) {
		list, err := resources.List(c.Request.Context(), c.Query("class_id"), c.Query("subject"))
		if err != nil {
			logger.Error("failed to list resources", "error", err)
			utils.RespondWithInternalError(c, "Failed to list resources")
			return
		}
		c.JSON(http.StatusOK, gin.H{"resources": list, "total": len(list)})
	})

	group.DELETE("/:id", func(c *gin.Context) {
		resourceID := c.Param("id")
		ctx := c.Request.Context()

		if _, err := resources.Get(ctx, resourceID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				utils.RespondWithNotFound(c, "Resource not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load resource")
			return
		}

		if err := resources.MarkDeleted(ctx, resourceID); err != nil {
			logger.Error("failed to mark resource deleted", "resource_id", resourceID, "error", err)
			utils.RespondWithInternalError(c, "Failed to delete resource")
			return
		}

		// Cascading delete; the cleanup sweep retries if this fails.
		if err := index.DeleteByResource(ctx, resourceID); err != nil {
			logger.Warn("vector delete failed, deferring to cleanup sweep",
				"resource_id", resourceID, "error", err)
			c.JSON(http.StatusAccepted, gin.H{"resource_id": resourceID, "status": "pending_cleanup"})
			return
		}

		if err := resources.Remove(ctx, resourceID); err != nil {
			logger.Warn("resource row removal failed", "resource_id", resourceID, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{"resource_id": resourceID, "status": "deleted"})
	})
}
