package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

// createIndexes provisions the b-tree indexes for filter and delete paths.
// The Atlas $vectorSearch index on the vector collection is created on Atlas
// itself and is not managed here.
func createIndexes(client *mongo.Client, cfg *Config) error {
	db := client.Database(cfg.DBName)

	resources := db.Collection("resources")
	resourceIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "subject", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := resources.Indexes().CreateMany(context.Background(), resourceIndexes); err != nil {
		return err
	}

	chatTurns := db.Collection("chat_turns")
	chatTurnIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "subject", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}
	if _, err := chatTurns.Indexes().CreateMany(context.Background(), chatTurnIndexes); err != nil {
		return err
	}

	vectors := db.Collection(cfg.VectorCollection)
	vectorIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "resource_id", Value: 1}}},
		{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "subject", Value: 1}}},
	}
	if _, err := vectors.Indexes().CreateMany(context.Background(), vectorIndexes); err != nil {
		return err
	}

	return nil
}
