package codebook

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quiver"
	"github.com/hupe1980/quiver/blobstore"
	"github.com/hupe1980/quiver/codec"
	"github.com/hupe1980/quiver/internal/hash"
	"github.com/hupe1980/quiver/resource"
	"github.com/hupe1980/quiver/testutil"
)

func sampleCodebook(t *testing.T, name string) *Codebook {
	t.Helper()
	values := testutil.NewRNG(7).SortedNormal(500)
	q, err := quiver.New()
	require.NoError(t, err)
	res, err := q.Construct(context.Background(), values, nil, 8)
	require.NoError(t, err)
	return FromResult(name, values, nil, res)
}

func assertSameCodebook(t *testing.T, want, got *Codebook) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Boundaries, got.Boundaries)
	assert.Equal(t, want.Mode, got.Mode)
	assert.Equal(t, want.Bins, got.Bins)
	assert.Equal(t, want.SketchSize, got.SketchSize)
	assert.Equal(t, want.Points, got.Points)
	assert.Equal(t, want.Cost, got.Cost)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created at %v != %v", want.CreatedAt, got.CreatedAt)
}

func TestRegistry_RoundTrip(t *testing.T) {
	ctx := context.Background()
	codecs := []codec.Codec{codec.Msgpack{}, codec.JSON{}}
	compressions := []Compression{CompressionNone, CompressionLZ4, CompressionZSTD}

	for _, c := range codecs {
		for _, comp := range compressions {
			t.Run(fmt.Sprintf("%s/%s", c.Name(), comp), func(t *testing.T) {
				// Disable the cache so Load decodes the blob.
				reg, err := NewRegistry(blobstore.NewMemoryStore(),
					WithCodec(c), WithCompression(comp), WithCacheSize(0))
				require.NoError(t, err)

				want := sampleCodebook(t, "normal")
				require.NoError(t, reg.Save(ctx, want))

				got, err := reg.Load(ctx, "normal")
				require.NoError(t, err)
				assertSameCodebook(t, want, got)
			})
		}
	}
}

func TestRegistry_LocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	reg, err := NewRegistry(blobstore.NewLocalStore(dir), WithPrefix("codebooks/"), WithCompression(CompressionZSTD))
	require.NoError(t, err)

	want := sampleCodebook(t, "a")
	require.NoError(t, reg.Save(ctx, want))
	require.NoError(t, reg.Save(ctx, sampleCodebook(t, "b")))

	// A fresh registry reads from disk.
	reg2, err := NewRegistry(blobstore.NewLocalStore(dir), WithPrefix("codebooks/"))
	require.NoError(t, err)

	got, err := reg2.Load(ctx, "a")
	require.NoError(t, err)
	assertSameCodebook(t, want, got)

	names, err := reg2.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, reg2.Delete(ctx, "a"))
	require.NoError(t, reg2.Delete(ctx, "a"))

	_, err = reg2.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err = reg2.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestRegistry_Cache(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg, err := NewRegistry(store)
	require.NoError(t, err)

	want := sampleCodebook(t, "cached")
	require.NoError(t, reg.Save(ctx, want))

	// Served from the cache even after the blob is gone.
	require.NoError(t, store.Delete(ctx, "cached"))
	got, err := reg.Load(ctx, "cached")
	require.NoError(t, err)
	assertSameCodebook(t, want, got)

	// Mutating a loaded codebook does not affect the cache.
	got.Boundaries[0] = 1e9
	again, err := reg.Load(ctx, "cached")
	require.NoError(t, err)
	assert.Equal(t, want.Boundaries, again.Boundaries)

	// Delete invalidates.
	require.NoError(t, reg.Delete(ctx, "cached"))
	_, err = reg.Load(ctx, "cached")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Construct(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry(blobstore.NewMemoryStore(), WithCacheSize(0))
	require.NoError(t, err)

	q, err := quiver.New(quiver.WithMode(quiver.ModeExact))
	require.NoError(t, err)

	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	cb, err := reg.Construct(ctx, q, "ints", values, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 8}, cb.Boundaries)

	got, err := reg.Load(ctx, "ints")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 8}, got.Boundaries)
	assert.True(t, got.Matches(values, nil))

	_, err = reg.Construct(ctx, q, "bad", values, nil, 0)
	assert.ErrorIs(t, err, quiver.ErrInvalidArgument)

	_, err = reg.Construct(ctx, q, "", values, nil, 2)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestRegistry_ExportImport(t *testing.T) {
	ctx := context.Background()
	src, err := NewRegistry(blobstore.NewMemoryStore(), WithCodec(codec.JSON{}), WithCompression(CompressionNone))
	require.NoError(t, err)
	dst, err := NewRegistry(blobstore.NewLocalStore(t.TempDir()), WithCacheSize(0))
	require.NoError(t, err)

	want := sampleCodebook(t, "moved")
	require.NoError(t, src.Save(ctx, want))

	var buf bytes.Buffer
	n, err := src.Export(ctx, "moved", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	imported, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assertSameCodebook(t, want, imported)

	got, err := dst.Load(ctx, "moved")
	require.NoError(t, err)
	assertSameCodebook(t, want, got)

	_, err = src.Export(ctx, "missing", &buf)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = dst.Import(ctx, bytes.NewReader([]byte("not a codebook")))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRegistry_Corrupt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg, err := NewRegistry(store, WithCacheSize(0))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"Short", []byte("QV"), ErrCorrupt},
		{"Magic", []byte("XXXX\x01\x00\x07msgpack"), ErrCorrupt},
		{"Version", []byte("QVCB\x09\x00\x07msgpack"), ErrUnsupportedVersion},
		{"CodecName", []byte("QVCB\x01\x00\x09msgpack"), ErrCorrupt},
		{"UnknownCodec", []byte("QVCB\x01\x00\x03xml"), ErrCorrupt},
		{"NoChecksum", []byte("QVCB\x01\x00\x07msgpack\x01\x02"), ErrCorrupt},
		// CRC32C of an empty block is 0, so only the frame is wrong here.
		{"Block", []byte("QVCB\x01\x01\x07msgpack\x00\x00\x00\x00"), ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, tt.name, tt.data))
			_, err := reg.Load(ctx, tt.name)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegistry_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg, err := NewRegistry(store, WithCacheSize(0), WithCompression(CompressionNone))
	require.NoError(t, err)

	require.NoError(t, reg.Save(ctx, sampleCodebook(t, "flip")))

	blob, err := store.Open(ctx, "flip")
	require.NoError(t, err)
	data, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	require.NoError(t, blob.Close())

	data[len(data)-1] ^= 0xff
	require.NoError(t, store.Put(ctx, "flip", data))

	_, err = reg.Load(ctx, "flip")
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, hash.ErrChecksumMismatch)
}

func TestRegistry_RateLimited(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	reg, err := NewRegistry(blobstore.NewMemoryStore(), WithResourceController(rc), WithCacheSize(0))
	require.NoError(t, err)

	want := sampleCodebook(t, "limited")
	require.NoError(t, reg.Save(ctx, want))
	got, err := reg.Load(ctx, "limited")
	require.NoError(t, err)
	assertSameCodebook(t, want, got)

	// A cancelled context stops throttled IO.
	slow := resource.NewController(resource.Config{IOLimitBytesPerSec: 1})
	reg2, err := NewRegistry(blobstore.NewMemoryStore(), WithResourceController(slow))
	require.NoError(t, err)

	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, reg2.Save(cctx, want))
}

func TestRegistry_Errors(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry(blobstore.NewMemoryStore())
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Save(ctx, &Codebook{}), ErrEmptyName)
	assert.ErrorIs(t, reg.Save(ctx, nil), ErrEmptyName)

	_, err = reg.Load(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = reg.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewRegistry(blobstore.NewMemoryStore(), WithCompression(Compression(9)))
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, c)
	assert.Equal(t, "lz4", CompressionLZ4.String())

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}
