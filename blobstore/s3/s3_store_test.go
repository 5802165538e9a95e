package s3

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quiver"
	"github.com/hupe1980/quiver/blobstore"
	"github.com/hupe1980/quiver/codebook"
)

// Runs against a real bucket; credentials come from the default AWS chain.
func TestS3Store_LiveBucket(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	ctx := context.Background()
	store, err := New(ctx, bucket, WithPrefix("quiver-it-"+strconv.FormatInt(time.Now().UnixNano(), 36)+"/"))
	require.NoError(t, err)

	reg, err := codebook.NewRegistry(store, codebook.WithCacheSize(0))
	require.NoError(t, err)

	values := make([]float64, 2048)
	for i := range values {
		values[i] = float64(i * i)
	}
	q, err := quiver.New()
	require.NoError(t, err)

	saved, err := reg.Construct(ctx, q, "squares", values, nil, 16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Delete(context.Background(), "squares") })

	names, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "squares")

	loaded, err := reg.Load(ctx, "squares")
	require.NoError(t, err)
	assert.Equal(t, saved.Boundaries, loaded.Boundaries)
	assert.True(t, loaded.Matches(values, nil))

	blob, err := store.Open(ctx, "squares")
	require.NoError(t, err)
	head := make([]byte, 4)
	_, err = blob.ReadAt(ctx, head, 0)
	require.NoError(t, err)
	assert.Equal(t, "QVCB", string(head))
	require.NoError(t, blob.Close())

	_, err = store.Open(ctx, "missing.qvcb")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
