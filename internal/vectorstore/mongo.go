package vectorstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnbox-tutor/internal/rag"
)

// numCandidatesFactor widens the approximate search beyond topK before the
// limit is applied, per Atlas guidance.
const numCandidatesFactor = 10

// Mongo stores chunk vectors in a dedicated collection and queries them with
// Atlas $vectorSearch. Implements rag.VectorIndex. The search index itself is
// provisioned on Atlas out of band; regular b-tree indexes cover the
// filter and delete paths.
type Mongo struct {
	col       *mongo.Collection
	indexName string
}

func NewMongo(col *mongo.Collection, indexName string) *Mongo {
	return &Mongo{col: col, indexName: indexName}
}

// vectorDoc is the persisted record layout. The _id follows the
// {resourceId}-chunk-{chunkIndex} wire contract so cascading delete can
// target a document's vectors by resource_id alone.
type vectorDoc struct {
	ID         string    `bson:"_id"`
	Vector     []float32 `bson:"vector"`
	ResourceID string    `bson:"resource_id"`
	Title      string    `bson:"title"`
	ClassID    string    `bson:"class_id"`
	Subject    string    `bson:"subject"`
	Term       string    `bson:"term"`
	ChunkIndex int       `bson:"chunk_index"`
	Text       string    `bson:"text"`
}

// Upsert writes one batch of records. Replace-with-upsert keeps re-indexing
// idempotent: the same vector id overwrites instead of duplicating. The
// ordered bulk write makes the batch all-or-nothing from the caller's
// perspective: the first write error aborts the rest.
func (m *Mongo) Upsert(ctx context.Context, records []rag.Record) error {
	if len(records) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, len(records))
	for i, r := range records {
		doc := vectorDoc{
			ID:         r.ID,
			Vector:     r.Vector,
			ResourceID: r.Metadata.ResourceID,
			Title:      r.Metadata.Title,
			ClassID:    r.Metadata.ClassID,
			Subject:    r.Metadata.Subject,
			Term:       r.Metadata.Term,
			ChunkIndex: r.Metadata.ChunkIndex,
			Text:       r.Metadata.Text,
		}
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": r.ID}).
			SetReplacement(doc).
			SetUpsert(true)
	}
	_, err := m.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}

// Query runs a filtered nearest-neighbor search. The class/subject filter is
// applied inside $vectorSearch, so a higher-scoring chunk from another class
// can never leak into the results.
func (m *Mongo) Query(ctx context.Context, vector []float32, topK int, scope rag.Scope) ([]rag.Match, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: m.indexName},
			{Key: "path", Value: "vector"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: topK * numCandidatesFactor},
			{Key: "limit", Value: topK},
			{Key: "filter", Value: bson.D{
				{Key: "class_id", Value: scope.ClassID},
				{Key: "subject", Value: scope.Subject},
			}},
		}}},
		// Score lands via $addFields; mixing a computed field into the
		// vector exclusion is rejected as a mixed projection on some
		// server versions.
		{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "vector", Value: 0},
		}}},
	}

	cursor, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []rag.Match
	for cursor.Next(ctx) {
		var row struct {
			ID         string  `bson:"_id"`
			Score      float64 `bson:"score"`
			ResourceID string  `bson:"resource_id"`
			Title      string  `bson:"title"`
			ClassID    string  `bson:"class_id"`
			Subject    string  `bson:"subject"`
			Term       string  `bson:"term"`
			ChunkIndex int     `bson:"chunk_index"`
			Text       string  `bson:"text"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		matches = append(matches, rag.Match{
			ID:    row.ID,
			Score: row.Score,
			Metadata: rag.ChunkMetadata{
				ResourceID: row.ResourceID,
				Title:      row.Title,
				ClassID:    row.ClassID,
				Subject:    row.Subject,
				Term:       row.Term,
				ChunkIndex: row.ChunkIndex,
				Text:       row.Text,
			},
		})
	}
	return matches, cursor.Err()
}

// DeleteByResource removes every vector belonging to one document
// (cascading delete).
func (m *Mongo) DeleteByResource(ctx context.Context, resourceID string) error {
	_, err := m.col.DeleteMany(ctx, bson.M{"resource_id": resourceID})
	return err
}
