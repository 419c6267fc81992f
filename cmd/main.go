package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"learnbox-tutor/internal/ai"
	"learnbox-tutor/internal/config"
	"learnbox-tutor/internal/logger"
	"learnbox-tutor/internal/rag"
	"learnbox-tutor/internal/telemetry"
	"learnbox-tutor/internal/vectorstore"
	"learnbox-tutor/middleware"
	"learnbox-tutor/routes"
	"learnbox-tutor/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Init(cfg.GinMode == "debug")

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("learnbox-tutor", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	embedder, err := ai.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to init embedder:", err)
	}
	defer embedder.Close()

	chatModel, err := ai.NewGeminiChat(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiRPM)
	if err != nil {
		log.Fatal("Failed to init chat model:", err)
	}
	defer chatModel.Close()

	vectorIndex := vectorstore.NewMongo(db.Collection(cfg.VectorCollection), cfg.VectorIndexName)

	indexer := rag.NewIndexer(embedder, vectorIndex, cfg.ChunkSize, cfg.ChunkOverlap, cfg.UpsertBatchSize)
	retriever := rag.NewRetriever(embedder, vectorIndex)
	generator := rag.NewGenerator(chatModel)

	resourceStore := services.NewResourceStore(db)
	turnStore := services.NewTurnStore(db)

	cleanup := services.NewCleanupService(resourceStore, vectorIndex,
		time.Duration(cfg.CleanupIntervalMinutes)*time.Minute)
	if err := cleanup.Start(); err != nil {
		log.Fatal("Failed to start cleanup service:", err)
	}
	defer cleanup.Stop()

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupResourceRoutes(router, cfg, resourceStore, indexer, vectorIndex, queueClient, metrics)
	routes.SetupChatRoutes(router, cfg, retriever, generator, turnStore, metrics)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
