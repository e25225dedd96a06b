package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	newRecord := func(id string) domain.DocumentRecord {
		return domain.DocumentRecord{
			ID:        id,
			SessionID: "session-" + id,
			ChannelID: "channel-1",
			MessageID: "message-1",
			AuthorID:  "author-1",
			Embed: domain.Embed{
				Title: "Contract",
				Fields: []domain.Field{
					{Name: "first", Value: "1"},
					{Name: "second", Value: "2"},
				},
			},
			CompletedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		rec := newRecord(docID)

		err := store.Save(ctx, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Embed, loaded.Embed)
		assert.Equal(t, rec.SessionID, loaded.SessionID)
		assert.True(t, rec.CompletedAt.Equal(loaded.CompletedAt))
	})

	t.Run("Field Order Preserved", func(t *testing.T) {
		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		require.Len(t, loaded.Embed.Fields, 2)
		assert.Equal(t, "first", loaded.Embed.Fields[0].Name)
		assert.Equal(t, "second", loaded.Embed.Fields[1].Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, newRecord(docID))
		require.NoError(t, err)

		err = store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		require.NoError(t, store.Save(ctx, newRecord(id1)))
		require.NoError(t, store.Save(ctx, newRecord(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunLockerContract verifies the TryLock semantics of a DistributedLocker.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Exclusive", func(t *testing.T) {
		unlock, ok, err := locker.TryLock(ctx, key, time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "first TryLock should acquire")

		_, ok, err = locker.TryLock(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "second TryLock should not acquire a held key")

		require.NoError(t, unlock(ctx))

		unlock, ok, err = locker.TryLock(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "TryLock should acquire after unlock")
		require.NoError(t, unlock(ctx))
	})

	t.Run("Independent Keys", func(t *testing.T) {
		u1, ok1, err := locker.TryLock(ctx, key+"-a", time.Minute)
		require.NoError(t, err)
		u2, ok2, err := locker.TryLock(ctx, key+"-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok1)
		assert.True(t, ok2)
		_ = u1(ctx)
		_ = u2(ctx)
	})
}
