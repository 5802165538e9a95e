package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quiver"
	"github.com/hupe1980/quiver/blobstore"
	"github.com/hupe1980/quiver/codebook"
)

func liveStore(t *testing.T) *Store {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	ctx := context.Background()
	const bucket = "quiver-it"
	ok, err := client.BucketExists(ctx, bucket)
	if err != nil {
		t.Skipf("minio unreachable: %v", err)
	}
	if !ok {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}
	return NewStore(client, bucket, t.Name())
}

func TestStore_Key(t *testing.T) {
	for _, root := range []string{"codebooks", "codebooks/", "/codebooks/"} {
		assert.Equal(t, "codebooks/a.qvcb", NewStore(nil, "b", root).key("a.qvcb"))
	}
	assert.Equal(t, "a.qvcb", NewStore(nil, "b", "").key("/a.qvcb"))
}

func TestStore_Blobs(t *testing.T) {
	store := liveStore(t)
	ctx := context.Background()

	payload := []byte("QVCB boundaries")
	require.NoError(t, store.Put(ctx, "raw", payload))

	blob, err := store.Open(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), blob.Size())

	tail := make([]byte, 16)
	n, err := blob.ReadAt(ctx, tail, 5)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "boundaries", string(tail[:n]))

	_, err = blob.ReadRange(ctx, blob.Size(), 1)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := blob.ReadRange(ctx, 0, 4)
	require.NoError(t, err)
	magic, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "QVCB", string(magic))
	require.NoError(t, blob.Close())

	w, err := store.Create(ctx, "streamed")
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw", "streamed"}, names)

	for _, name := range names {
		require.NoError(t, store.Delete(ctx, name))
	}
	require.NoError(t, store.Delete(ctx, "raw"))

	_, err = store.Open(ctx, "raw")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Registry(t *testing.T) {
	store := liveStore(t)
	ctx := context.Background()

	reg, err := codebook.NewRegistry(store, codebook.WithCacheSize(0))
	require.NoError(t, err)
	q, err := quiver.New(quiver.WithMode(quiver.ModeExact))
	require.NoError(t, err)

	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	cb, err := reg.Construct(ctx, q, "eight", values, nil, 2)
	require.NoError(t, err)
	defer func() { _ = reg.Delete(ctx, "eight") }()

	got, err := reg.Load(ctx, "eight")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 8}, got.Boundaries)
	assert.Equal(t, cb.Fingerprint, got.Fingerprint)
}

func TestTranslateError(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	assert.ErrorIs(t, translateError(missing), blobstore.ErrNotFound)
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	assert.Equal(t, error(denied), translateError(denied))
	assert.False(t, isNotFound(denied))
}
