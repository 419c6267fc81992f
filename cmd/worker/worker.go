package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"learnbox-tutor/internal/ai"
	"learnbox-tutor/internal/config"
	"learnbox-tutor/internal/logger"
	"learnbox-tutor/internal/queue"
	"learnbox-tutor/internal/rag"
	"learnbox-tutor/internal/vectorstore"
	"learnbox-tutor/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Init(cfg.GinMode == "debug")

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	db := mongoClient.Database(cfg.DBName)

	ctx := context.Background()
	embedder, err := ai.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to init embedder:", err)
	}
	defer embedder.Close()

	vectorIndex := vectorstore.NewMongo(db.Collection(cfg.VectorCollection), cfg.VectorIndexName)
	indexer := rag.NewIndexer(embedder, vectorIndex, cfg.ChunkSize, cfg.ChunkOverlap, cfg.UpsertBatchSize)
	resourceStore := services.NewResourceStore(db)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewIndexProcessor(resourceStore, indexer)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIndexResource, processor.HandleIndexResource)

	logger.Info("starting indexing worker", "redis", cfg.RedisURL, "concurrency", 10)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
