package codebook

import (
	"github.com/hupe1980/quiver"
	"github.com/hupe1980/quiver/codec"
	"github.com/hupe1980/quiver/internal/compress"
	"github.com/hupe1980/quiver/resource"
)

// Compression selects the block compression of stored codebooks.
type Compression uint8

const (
	// CompressionNone stores the encoded codebook as is.
	CompressionNone = Compression(compress.None)
	// CompressionLZ4 favors speed.
	CompressionLZ4 = Compression(compress.LZ4)
	// CompressionZSTD favors size.
	CompressionZSTD = Compression(compress.ZSTD)
)

func (c Compression) String() string {
	return compress.Type(c).String()
}

// ParseCompression returns the compression with the given name
// ("none", "lz4" or "zstd").
func ParseCompression(name string) (Compression, error) {
	t, err := compress.ParseType(name)
	return Compression(t), err
}

// DefaultCacheSize is the number of codebooks a Registry keeps in memory.
const DefaultCacheSize = 128

type options struct {
	codec       codec.Codec
	compression Compression
	cacheSize   int
	prefix      string
	rc          *resource.Controller
	logger      *quiver.Logger
}

// Option configures a Registry.
type Option func(*options)

// WithCodec sets the codec for newly saved codebooks. Stored codebooks are
// always decoded with the codec named in their header.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the compression for newly saved codebooks.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCacheSize sets the LRU capacity. Zero or less disables caching.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithPrefix stores codebooks under prefix (e.g. "codebooks/").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithResourceController throttles codebook IO through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger sets the logger. nil disables logging.
func WithLogger(l *quiver.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = quiver.NoopLogger()
		}
		o.logger = l
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:       codec.Default,
		compression: CompressionLZ4,
		cacheSize:   DefaultCacheSize,
		logger:      quiver.NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
