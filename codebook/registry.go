package codebook

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/quiver"
	"github.com/hupe1980/quiver/blobstore"
	"github.com/hupe1980/quiver/codec"
	"github.com/hupe1980/quiver/internal/compress"
	"github.com/hupe1980/quiver/internal/hash"
	"github.com/hupe1980/quiver/resource"
)

// Blob layout:
//
//	magic "QVCB" | version u8 | compression u8 | len(codec) u8 | codec name | crc32c(block) u32 | block
//
// where block is an internal/compress frame of the codec payload.
const (
	magic         = "QVCB"
	formatVersion = 1
	fixedHeader   = len(magic) + 3
	checksumSize  = 4
)

var (
	// ErrNotFound is returned when no codebook with the name exists.
	ErrNotFound = blobstore.ErrNotFound
	// ErrCorrupt is returned for blobs that are not readable codebooks.
	ErrCorrupt = errors.New("codebook: corrupt blob")
	// ErrUnsupportedVersion is returned for blobs written by a newer format.
	ErrUnsupportedVersion = errors.New("codebook: unsupported format version")
)

// Registry saves and loads codebooks in a blob store. It is safe for
// concurrent use.
type Registry struct {
	store blobstore.BlobStore
	opts  options
	cache *lru.Cache[string, *Codebook] // nil if disabled
}

// NewRegistry creates a registry over store.
func NewRegistry(store blobstore.BlobStore, optFns ...Option) (*Registry, error) {
	o := applyOptions(optFns)
	if len(o.codec.Name()) > 255 {
		return nil, fmt.Errorf("codebook: codec name %q too long", o.codec.Name())
	}
	if _, err := compress.ParseType(o.compression.String()); err != nil {
		return nil, err
	}

	r := &Registry{store: store, opts: o}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, *Codebook](o.cacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	return r, nil
}

func (r *Registry) blobName(name string) string {
	return r.opts.prefix + name
}

// Save encodes and stores cb, replacing any codebook of the same name.
func (r *Registry) Save(ctx context.Context, cb *Codebook) error {
	if cb == nil || cb.Name == "" {
		return ErrEmptyName
	}

	data, err := r.encode(cb)
	if err != nil {
		return err
	}
	if err := r.opts.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := r.store.Put(ctx, r.blobName(cb.Name), data); err != nil {
		return fmt.Errorf("codebook: save %s: %w", cb.Name, err)
	}

	if r.cache != nil {
		r.cache.Add(cb.Name, cb.clone())
	}
	r.opts.logger.DebugContext(ctx, "codebook saved",
		"name", cb.Name,
		"bytes", len(data),
		"codec", r.opts.codec.Name(),
		"compression", r.opts.compression.String(),
	)
	return nil
}

// Load returns the codebook stored under name. Callers own the result.
func (r *Registry) Load(ctx context.Context, name string) (*Codebook, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if r.cache != nil {
		if cb, ok := r.cache.Get(name); ok {
			return cb.clone(), nil
		}
	}

	data, err := r.read(ctx, name)
	if err != nil {
		return nil, err
	}
	cb, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("codebook: load %s: %w", name, err)
	}

	if r.cache != nil {
		r.cache.Add(name, cb.clone())
	}
	r.opts.logger.DebugContext(ctx, "codebook loaded", "name", name, "bytes", len(data))
	return cb, nil
}

// Construct builds a codebook with q and saves it under name.
func (r *Registry) Construct(ctx context.Context, q *quiver.Quantizer, name string, values, weights []float64, s int) (*Codebook, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	res, err := q.Construct(ctx, values, weights, s)
	if err != nil {
		return nil, err
	}
	cb := FromResult(name, values, weights, res)
	if err := r.Save(ctx, cb); err != nil {
		return nil, err
	}
	return cb, nil
}

// Export streams the stored blob of a codebook to w, throttled like every
// other registry IO. The output can be passed to Import on any registry.
func (r *Registry) Export(ctx context.Context, name string, w io.Writer) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	blob, err := r.store.Open(ctx, r.blobName(name))
	if err != nil {
		return 0, fmt.Errorf("codebook: open %s: %w", name, err)
	}
	defer blob.Close()

	if blob.Size() == 0 {
		return 0, fmt.Errorf("codebook: export %s: %w", name, ErrCorrupt)
	}
	body, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return 0, fmt.Errorf("codebook: read %s: %w", name, err)
	}
	defer body.Close()

	return io.Copy(resource.NewRateLimitedWriter(ctx, w, r.opts.rc), body)
}

// Import decodes an exported codebook and saves it with this registry's
// codec and compression.
func (r *Registry) Import(ctx context.Context, src io.Reader) (*Codebook, error) {
	data, err := io.ReadAll(resource.NewRateLimitedReader(ctx, src, r.opts.rc))
	if err != nil {
		return nil, err
	}
	cb, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("codebook: import: %w", err)
	}
	if err := r.Save(ctx, cb); err != nil {
		return nil, err
	}
	return cb, nil
}

// Delete removes a codebook. Deleting a missing codebook is not an error.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if r.cache != nil {
		r.cache.Remove(name)
	}
	return r.store.Delete(ctx, r.blobName(name))
}

// List returns the sorted names of all stored codebooks.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	names, err := r.store.List(ctx, r.opts.prefix)
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = strings.TrimPrefix(n, r.opts.prefix)
	}
	return names, nil
}

func (r *Registry) read(ctx context.Context, name string) ([]byte, error) {
	blob, err := r.store.Open(ctx, r.blobName(name))
	if err != nil {
		return nil, fmt.Errorf("codebook: open %s: %w", name, err)
	}
	defer blob.Close()

	if blob.Size() < int64(fixedHeader) {
		return nil, fmt.Errorf("codebook: load %s: %w", name, ErrCorrupt)
	}

	body, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("codebook: read %s: %w", name, err)
	}
	defer body.Close()

	data, err := io.ReadAll(resource.NewRateLimitedReader(ctx, body, r.opts.rc))
	if err != nil {
		return nil, fmt.Errorf("codebook: read %s: %w", name, err)
	}
	return data, nil
}

func (r *Registry) encode(cb *Codebook) ([]byte, error) {
	payload, err := r.opts.codec.Marshal(cb)
	if err != nil {
		return nil, fmt.Errorf("codebook: encode %s: %w", cb.Name, err)
	}
	block, err := compress.Compress(payload, compress.Type(r.opts.compression))
	if err != nil {
		return nil, fmt.Errorf("codebook: compress %s: %w", cb.Name, err)
	}

	codecName := r.opts.codec.Name()
	buf := make([]byte, 0, fixedHeader+len(codecName)+checksumSize+len(block))
	buf = append(buf, magic...)
	buf = append(buf, formatVersion, byte(r.opts.compression), byte(len(codecName)))
	buf = append(buf, codecName...)
	buf = binary.LittleEndian.AppendUint32(buf, hash.CRC32C(block))
	return append(buf, block...), nil
}

func decode(data []byte) (*Codebook, error) {
	if len(data) < fixedHeader || string(data[:len(magic)]) != magic {
		return nil, ErrCorrupt
	}
	version := data[4]
	if version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	ctype := compress.Type(data[5])
	nameLen := int(data[6])
	if len(data) < fixedHeader+nameLen+checksumSize {
		return nil, ErrCorrupt
	}
	codecName := string(data[fixedHeader : fixedHeader+nameLen])
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, codecName)
	}

	off := fixedHeader + nameLen
	block := data[off+checksumSize:]
	if err := hash.Verify(block, binary.LittleEndian.Uint32(data[off:])); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	payload, err := compress.Decompress(block, ctype)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var cb Codebook
	if err := c.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &cb, nil
}
