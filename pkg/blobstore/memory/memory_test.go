package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabserve/tabserve/pkg/blobstore"
)

func TestStore(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "u/datasets/a.csv", []byte("a,b\n1,2\n"), "text/csv"))
	require.NoError(t, store.Put(ctx, "u/datasets/a.pkl", []byte{1, 2, 3}, "application/octet-stream"))
	require.NoError(t, store.Put(ctx, "v/datasets/b.pkl", []byte{4}, "application/octet-stream"))

	t.Run("get", func(t *testing.T) {
		data, err := store.Get(ctx, "u/datasets/a.csv")
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(data))
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "u/datasets/nope.csv")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("list scoped to prefix", func(t *testing.T) {
		infos, err := store.List(ctx, "u/datasets/")
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "u/datasets/a.csv", infos[0].Key)
		assert.Equal(t, int64(8), infos[0].Size)
		assert.False(t, infos[0].LastModified.IsZero())
	})

	t.Run("presign", func(t *testing.T) {
		url, err := store.Presign(ctx, "u/datasets/a.pkl", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "u/datasets/a.pkl")

		_, err = store.Presign(ctx, "u/datasets/nope.pkl", time.Hour)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "v/datasets/b.pkl"))
		assert.ErrorIs(t, store.Delete(ctx, "v/datasets/b.pkl"), blobstore.ErrNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "u/datasets/a.csv", []byte("new"), "text/csv"))
		data, err := store.Get(ctx, "u/datasets/a.csv")
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})
}
