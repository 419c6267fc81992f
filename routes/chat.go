package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"learnbox-tutor/internal/config"
	"learnbox-tutor/internal/logger"
	"learnbox-tutor/internal/rag"
	"learnbox-tutor/internal/telemetry"
	"learnbox-tutor/models"
	"learnbox-tutor/services"
	"learnbox-tutor/utils"
)

// SetupChatRoutes wires the student question path: retrieve, generate,
// guardrail, dedupe, record.
func SetupChatRoutes(
	router *gin.Engine,
	cfg *config.Config,
	retriever *rag.Retriever,
	generator *rag.Generator,
	turns *services.TurnStore,
	metrics *telemetry.Metrics,
) {
	chat := router.Group("/chat")

	chat.POST("/ask", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = "session-" + uuid.NewString()
		}

		ctx := c.Request.Context()
		scope := rag.Scope{ClassID: req.ClassID, Subject: req.Subject}

		retrievalStart := time.Now()
		matches, err := retriever.Retrieve(ctx, req.Message, scope, cfg.TopK)
		if err != nil {
			var rf *rag.RetrievalFailed
			if errors.As(err, &rf) {
				logger.Error("retrieval failed", "class_id", req.ClassID, "subject", req.Subject, "error", err)
			}
			utils.RespondWithInternalError(c, "Failed to process chat message")
			return
		}
		if metrics != nil {
			metrics.RetrievalDuration.Record(ctx, time.Since(retrievalStart).Seconds())
		}

		generationStart := time.Now()
		answer, err := generator.Generate(ctx, req.Message, matches, req.Subject, req.ClassID)
		if err != nil {
			var gf *rag.GenerationFailed
			if errors.As(err, &gf) {
				logger.Error("generation failed", "class_id", req.ClassID, "subject", req.Subject, "error", err)
			}
			utils.RespondWithInternalError(c, "Failed to process chat message")
			return
		}
		if metrics != nil {
			metrics.GenerationDuration.Record(ctx, time.Since(generationStart).Seconds())
			if len(matches) == 0 {
				metrics.RefusalsServed.Add(ctx, 1)
			}
		}

		// Grounding check is a QA signal only; the answer goes out either way.
		if len(matches) > 0 && !rag.IsGrounded(answer, rag.BuildContext(matches)) {
			logger.Warn("answer not traceable to context",
				"session_id", sessionID, "class_id", req.ClassID, "subject", req.Subject)
			if metrics != nil {
				metrics.GuardrailMisses.Add(ctx, 1)
			}
		}

		sources := rag.DedupeSources(matches)

		// Counted on persisted turns only; the request context may be gone
		// by the time the background append finishes.
		var onRecorded func()
		if metrics != nil {
			onRecorded = func() {
				metrics.TurnsRecorded.Add(context.Background(), 1)
			}
		}
		turns.RecordAsync(models.ChatTurn{
			SessionID:         sessionID,
			UserID:            req.UserID,
			ClassID:           req.ClassID,
			Subject:           req.Subject,
			UserMessage:       req.Message,
			AIResponse:        answer,
			SourceResourceIDs: rag.SourceResourceIDs(sources),
			IsVoiceInput:      req.IsVoiceInput,
			IsVoiceOutput:     req.IsVoiceOutput,
			CreatedAt:         time.Now(),
		}, onRecorded)

		sourceRefs := make([]models.SourceRef, len(sources))
		for i, s := range sources {
			sourceRefs[i] = models.SourceRef{ID: s.ResourceID, Title: s.Title}
		}

		c.JSON(http.StatusOK, models.AskResponse{
			Response:  answer,
			Sources:   sourceRefs,
			SessionID: sessionID,
		})
	})

	chat.GET("/sessions/:session_id", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		history, err := turns.BySession(ctx, c.Param("session_id"))
		if err != nil {
			logger.Error("failed to load session history", "session_id", c.Param("session_id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to retrieve session history")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": c.Param("session_id"),
			"turns":      history,
			"total":      len(history),
		})
	})
}
