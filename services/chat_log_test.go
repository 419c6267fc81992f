package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"learnbox-tutor/models"
)

func TestRecordAsyncRunsCallbackAfterPersist(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("successful append", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := &TurnStore{col: mt.Coll}

		done := make(chan struct{})
		store.RecordAsync(models.ChatTurn{
			SessionID: "session-1",
			ClassID:   "JSS 1",
			Subject:   "Basic Science",
		}, func() { close(done) })

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			mt.Fatal("callback never ran after a successful append")
		}
	})

	mt.Run("failed append skips the callback", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key",
		}))
		store := &TurnStore{col: mt.Coll}

		var called atomic.Bool
		store.RecordAsync(models.ChatTurn{SessionID: "session-2"}, func() {
			called.Store(true)
		})

		time.Sleep(200 * time.Millisecond)
		require.False(mt, called.Load(), "callback must not run when the append fails")
	})

	mt.Run("nil callback is allowed", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := &TurnStore{col: mt.Coll}
		store.RecordAsync(models.ChatTurn{SessionID: "session-3"}, nil)
		time.Sleep(100 * time.Millisecond)
	})
}
