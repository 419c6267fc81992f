package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnbox-tutor/models"
)

// ResourceStore persists uploaded curriculum documents.
type ResourceStore struct {
	col *mongo.Collection
}

func NewResourceStore(db *mongo.Database) *ResourceStore {
	return &ResourceStore{col: db.Collection("resources")}
}

func (s *ResourceStore) Insert(ctx context.Context, r models.Resource) error {
	_, err := s.col.InsertOne(ctx, r)
	return err
}

func (s *ResourceStore) Get(ctx context.Context, resourceID string) (*models.Resource, error) {
	var r models.Resource
	if err := s.col.FindOne(ctx, bson.M{"_id": resourceID}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns non-deleted resources, optionally narrowed by class and
// subject.
func (s *ResourceStore) List(ctx context.Context, classID, subject string) ([]models.Resource, error) {
	filter := bson.M{"status": bson.M{"$ne": models.ResourceStatusDeleted}}
	if classID != "" {
		filter["class_id"] = classID
	}
	if subject != "" {
		filter["subject"] = subject
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.M{"uploaded_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	resources := make([]models.Resource, 0)
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// MarkIndexed records a completed index run.
func (s *ResourceStore) MarkIndexed(ctx context.Context, resourceID string, chunkCount int) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": resourceID}, bson.M{
		"$set": bson.M{"status": models.ResourceStatusIndexed, "chunk_count": chunkCount},
	})
	return err
}

// MarkFailed flags an index run that aborted; the document may be partially
// indexed and the caller decides whether to delete-then-retry.
func (s *ResourceStore) MarkFailed(ctx context.Context, resourceID string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": resourceID}, bson.M{
		"$set": bson.M{"status": models.ResourceStatusFailed},
	})
	return err
}

// MarkDeleted flags the resource for cascading vector delete. The document
// row stays until the vectors are confirmed gone so the cleanup sweep can
// retry.
func (s *ResourceStore) MarkDeleted(ctx context.Context, resourceID string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": resourceID}, bson.M{
		"$set": bson.M{"status": models.ResourceStatusDeleted, "deleted_at": time.Now()},
	})
	return err
}

// Remove drops the document row once its vectors are confirmed deleted.
func (s *ResourceStore) Remove(ctx context.Context, resourceID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": resourceID})
	return err
}

// ListDeleted returns resources still flagged deleted, i.e. whose vector
// cleanup has not been confirmed yet.
func (s *ResourceStore) ListDeleted(ctx context.Context) ([]models.Resource, error) {
	cursor, err := s.col.Find(ctx, bson.M{"status": models.ResourceStatusDeleted})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	resources := make([]models.Resource, 0)
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}
