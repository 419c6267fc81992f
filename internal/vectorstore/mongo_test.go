package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"learnbox-tutor/internal/rag"
)

func TestQueryDecodesScoredMatches(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("scored match", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "res-1-chunk-0"},
			{Key: "score", Value: 0.93},
			{Key: "resource_id", Value: "res-1"},
			{Key: "title", Value: "Photosynthesis"},
			{Key: "class_id", Value: "JSS 1"},
			{Key: "subject", Value: "Basic Science"},
			{Key: "term", Value: "2"},
			{Key: "chunk_index", Value: 0},
			{Key: "text", Value: "photosynthesis content"},
		}))

		store := NewMongo(mt.Coll, "curriculum_vectors_index")
		matches, err := store.Query(context.Background(), []float32{0.1, 0.2}, 5,
			rag.Scope{ClassID: "JSS 1", Subject: "Basic Science"})
		require.NoError(mt, err)
		require.Len(mt, matches, 1)
		assert.Equal(mt, "res-1-chunk-0", matches[0].ID)
		assert.Equal(mt, 0.93, matches[0].Score)
		assert.Equal(mt, "res-1", matches[0].Metadata.ResourceID)
		assert.Equal(mt, "Photosynthesis", matches[0].Metadata.Title)
		assert.Equal(mt, 0, matches[0].Metadata.ChunkIndex)
	})
}

func TestQueryProjectionStaysExclusionOnly(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pipeline shape", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		store := NewMongo(mt.Coll, "curriculum_vectors_index")
		_, err := store.Query(context.Background(), []float32{0.1}, 3,
			rag.Scope{ClassID: "SS 1", Subject: "Physics"})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "aggregate", evt.CommandName)

		var cmd struct {
			Pipeline []bson.Raw `bson:"pipeline"`
		}
		require.NoError(mt, bson.Unmarshal(evt.Command, &cmd))
		require.Len(mt, cmd.Pipeline, 3)

		// The computed score comes from $addFields, never from $project.
		addFields, err := cmd.Pipeline[1].Elements()
		require.NoError(mt, err)
		require.Len(mt, addFields, 1)
		assert.Equal(mt, "$addFields", addFields[0].Key())

		project, err := cmd.Pipeline[2].Elements()
		require.NoError(mt, err)
		require.Len(mt, project, 1)
		require.Equal(mt, "$project", project[0].Key())

		fields, err := project[0].Value().Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, fields, 1)
		assert.Equal(mt, "vector", fields[0].Key())
	})
}
