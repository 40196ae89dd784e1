package dataset_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabserve/tabserve/pkg/blobstore/memory"
	"github.com/tabserve/tabserve/pkg/dataset"
)

const sampleCSV = "age,name\n31,ann\n,bob\n45,cat\n"

func newService(t *testing.T) (*dataset.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := dataset.NewService(store, slog.New(slog.DiscardHandler))
	return svc, store
}

func TestServiceUpload(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	result, err := svc.Upload(ctx, "alice", "people.csv", []byte(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "name"}, result.Columns)
	assert.Equal(t, 3, result.NumRows)
	assert.True(t, strings.HasPrefix(result.RawKey, "alice/datasets/"))
	assert.True(t, strings.HasSuffix(result.RawKey, ".csv"))
	assert.True(t, strings.HasSuffix(result.MaterializedKey, ".pkl"))
	assert.Equal(t, result.MaterializedKey, result.DatasetID)

	// Both blobs persisted.
	raw, err := store.Get(ctx, result.RawKey)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(raw))
	_, err = store.Get(ctx, result.MaterializedKey)
	require.NoError(t, err)
}

func TestServiceUploadRejectsNonCSV(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Upload(context.Background(), "alice", "model.xlsx", []byte("x"))
	assert.ErrorIs(t, err, dataset.ErrBadInput)
}

func TestServiceUploadParseFailureKeepsRawBlob(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	// Ragged rows make the CSV unparseable; the raw blob is written
	// before parsing and deliberately left behind.
	_, err := svc.Upload(ctx, "alice", "bad.csv", []byte("a,b\n1\n2,3,4\n"))
	require.Error(t, err)

	objects, err := store.List(ctx, "alice/datasets/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.True(t, strings.HasSuffix(objects[0].Key, ".csv"))
}

func TestServiceList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "alice", "a.csv", []byte(sampleCSV))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "alice", "b.csv", []byte(sampleCSV))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "bob", "c.csv", []byte(sampleCSV))
	require.NoError(t, err)

	infos, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, infos, 2, "one entry per materialized blob, caller-scoped")

	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		assert.True(t, strings.HasPrefix(info.Key, "alice/datasets/"))
		assert.Equal(t, "pkl", info.Format)
		assert.NotEmpty(t, info.DownloadURL)
		assert.NotEmpty(t, info.UploadedAt)
		keys = append(keys, info.ID)
	}
	assert.Contains(t, keys, first.MaterializedKey)

	empty, err := svc.List(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestServiceDelete(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	result, err := svc.Upload(ctx, "alice", "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	t.Run("forbidden for other owner", func(t *testing.T) {
		err := svc.Delete(ctx, "bob", result.MaterializedKey)
		assert.ErrorIs(t, err, dataset.ErrForbidden)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		err := svc.Delete(ctx, "alice", "alice/datasets/nope.pkl")
		assert.ErrorIs(t, err, dataset.ErrNotFound)
	})

	t.Run("removes both blobs", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, "alice", result.MaterializedKey))

		_, err := store.Get(ctx, result.MaterializedKey)
		assert.Error(t, err)
		_, err = store.Get(ctx, result.RawKey)
		assert.Error(t, err, "raw companion should be cleaned up")
	})

	t.Run("missing raw companion is swallowed", func(t *testing.T) {
		res, err := svc.Upload(ctx, "alice", "b.csv", []byte(sampleCSV))
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, res.RawKey))

		assert.NoError(t, svc.Delete(ctx, "alice", res.MaterializedKey))
	})
}

func TestServiceSummarize(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	result, err := svc.Upload(ctx, "alice", "people.csv", []byte(sampleCSV))
	require.NoError(t, err)

	summary, err := svc.Summarize(ctx, "alice", result.DatasetID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.NumRows)
	assert.Equal(t, []string{"age", "name"}, summary.Columns)
	assert.Equal(t, 1, summary.MissingValues["age"])
	assert.Equal(t, 0, summary.MissingValues["name"])

	t.Run("id without extension resolves", func(t *testing.T) {
		id := strings.TrimSuffix(result.DatasetID, ".pkl")
		summary, err := svc.Summarize(ctx, "alice", id)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.NumRows)
	})

	t.Run("forbidden across owners", func(t *testing.T) {
		_, err := svc.Summarize(ctx, "bob", result.DatasetID)
		assert.ErrorIs(t, err, dataset.ErrForbidden)
	})

	t.Run("deleted dataset is not found", func(t *testing.T) {
		_, err := svc.Summarize(ctx, "alice", "alice/datasets/gone.pkl")
		assert.ErrorIs(t, err, dataset.ErrNotFound)
	})
}

func TestServiceTopRows(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	csv := "x\n1\n2\n3\n4\n5\n"
	result, err := svc.Upload(ctx, "alice", "five.csv", []byte(csv))
	require.NoError(t, err)

	rows, err := svc.TopRows(ctx, "alice", result.DatasetID, 10, "")
	require.NoError(t, err)
	require.Len(t, rows, 5, "fewer rows than n returns all rows")

	for i, row := range rows {
		assert.Equal(t, int64(i+1), row["x"], "original row order preserved")
	}

	t.Run("target column is reserved and ignored", func(t *testing.T) {
		withTarget, err := svc.TopRows(ctx, "alice", result.DatasetID, 10, "x")
		require.NoError(t, err)
		assert.Equal(t, rows, withTarget)
	})
}

func TestServiceErrorsDistinguishable(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.TopRows(context.Background(), "alice", "bob/datasets/x.pkl", 10, "")
	assert.ErrorIs(t, err, dataset.ErrForbidden)
	assert.False(t, errors.Is(err, dataset.ErrNotFound),
		"authorization failure must not leak resource existence")
}
