//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicebot/internal/invoice/models"
	"invoicebot/pkg/platform/sentinel"
	"invoicebot/pkg/testutil/containers"
)

func TestRedisStore_Integration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	t.Run("put and get round trip", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		data := models.StageOne{
			Date:     "2025-07-16",
			Number:   "INV-001",
			Customer: "Acme Corp",
			Subject:  "July consulting",
		}
		require.NoError(t, store.Put(ctx, "sess-1", data, time.Minute))

		got, err := store.Get(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("absent id maps to not found", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("server-side expiry", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		data := models.StageOne{Date: "2025-07-16"}
		require.NoError(t, store.Put(ctx, "sess-ttl", data, 100*time.Millisecond))

		_, err := store.Get(ctx, "sess-ttl")
		require.NoError(t, err)

		time.Sleep(200 * time.Millisecond)

		_, err = store.Get(ctx, "sess-ttl")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		data := models.StageOne{Date: "2025-07-16"}
		require.NoError(t, store.Put(ctx, "sess-del", data, time.Minute))
		require.NoError(t, store.Delete(ctx, "sess-del"))

		_, err := store.Get(ctx, "sess-del")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		assert.NoError(t, store.Delete(ctx, "sess-del"))
	})

	t.Run("keys carry the session prefix", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		data := models.StageOne{Date: "2025-07-16"}
		require.NoError(t, store.Put(ctx, "sess-key", data, time.Minute))

		keys, err := rc.Client.Keys(ctx, "invoicebot:session:*").Result()
		require.NoError(t, err)
		assert.Equal(t, []string{"invoicebot:session:sess-key"}, keys)
	})
}
