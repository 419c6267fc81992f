package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnbox-tutor/internal/logger"
	"learnbox-tutor/models"
)

// recordTimeout bounds the background append so an unreachable store cannot
// leak goroutines.
const recordTimeout = 5 * time.Second

// TurnStore is the append-only chat audit log.
type TurnStore struct {
	col *mongo.Collection
}

func NewTurnStore(db *mongo.Database) *TurnStore {
	return &TurnStore{col: db.Collection("chat_turns")}
}

// Append writes one turn. Turns are never updated or deleted.
func (s *TurnStore) Append(ctx context.Context, turn models.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	_, err := s.col.InsertOne(ctx, turn)
	return err
}

// RecordAsync appends the turn in the background. The answer has already
// been returned to the student; a store failure is logged and nothing else.
// recorded, if non-nil, runs only after the append succeeds, so callers
// count persisted turns rather than attempts.
func (s *TurnStore) RecordAsync(turn models.ChatTurn, recorded func()) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.Append(ctx, turn); err != nil {
			logger.Error("failed to record chat turn",
				"session_id", turn.SessionID,
				"class_id", turn.ClassID,
				"error", err)
			return
		}
		if recorded != nil {
			recorded()
		}
	}()
}

// BySession returns a session's turns oldest first.
func (s *TurnStore) BySession(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	cursor, err := s.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.M{"created_at": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	turns := make([]models.ChatTurn, 0)
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}
