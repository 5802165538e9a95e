// Package codebook persists constructed quantizers.
//
// A Codebook carries the boundaries of one construction together with the
// provenance needed to tell whether it is still valid for a value set. A
// Registry stores codebooks in any blobstore.BlobStore.
package codebook

import (
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/quiver"
)

// ErrEmptyName is returned for codebooks without a name.
var ErrEmptyName = errors.New("codebook: empty name")

// Codebook is a persisted set of quantizer boundaries.
type Codebook struct {
	Name       string    `msgpack:"name" json:"name"`
	Boundaries []float64 `msgpack:"boundaries" json:"boundaries"`
	Mode       string    `msgpack:"mode" json:"mode"`
	Bins       int       `msgpack:"bins" json:"bins"`
	SketchSize int       `msgpack:"sketch_size,omitempty" json:"sketch_size,omitempty"`
	Points     int       `msgpack:"points" json:"points"`
	Cost       float64   `msgpack:"cost" json:"cost"`
	// Fingerprint identifies the value set the codebook was built from.
	Fingerprint uint64    `msgpack:"fingerprint" json:"fingerprint"`
	CreatedAt   time.Time `msgpack:"created_at" json:"created_at"`
}

// FromResult wraps a construction result.
func FromResult(name string, values, weights []float64, res *quiver.Result) *Codebook {
	return &Codebook{
		Name:        name,
		Boundaries:  slices.Clone(res.Boundaries),
		Mode:        res.Mode.String(),
		Bins:        len(res.Boundaries) - 1,
		SketchSize:  res.SketchSize,
		Points:      res.Points,
		Cost:        res.Cost,
		Fingerprint: Fingerprint(values, weights),
		CreatedAt:   time.Now().UTC(),
	}
}

// Fingerprint hashes the little-endian bits of values followed by weights.
// nil weights hash differently from explicit unit weights.
func Fingerprint(values, weights []float64) uint64 {
	d := xxhash.New()
	var buf [8]byte

	write := func(xs []float64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(xs)))
		_, _ = d.Write(buf[:])
		for _, x := range xs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
			_, _ = d.Write(buf[:])
		}
	}

	write(values)
	if weights != nil {
		write(weights)
	}
	return d.Sum64()
}

// Matches reports whether the codebook was built from this value set.
func (c *Codebook) Matches(values, weights []float64) bool {
	return c.Fingerprint == Fingerprint(values, weights)
}

// Bin returns the index k of the bin [B[k], B[k+1]] holding x, clamped to
// [0, Bins-1]. A value on an interior boundary belongs to the lower bin.
func (c *Codebook) Bin(x float64) int {
	if len(c.Boundaries) < 2 {
		return 0
	}
	inner := c.Boundaries[1 : len(c.Boundaries)-1]
	return sort.SearchFloat64s(inner, x)
}

// Round stochastically rounds x to one of its enclosing boundaries, rounding
// up with probability (x-B[k])/(B[k+1]-B[k]). u must be uniform in [0, 1).
// The result is unbiased for x inside [B[0], B[s]]; values outside are
// clamped.
func (c *Codebook) Round(x, u float64) float64 {
	if len(c.Boundaries) == 0 {
		return x
	}
	if x <= c.Boundaries[0] {
		return c.Boundaries[0]
	}
	last := c.Boundaries[len(c.Boundaries)-1]
	if x >= last {
		return last
	}

	k := c.Bin(x)
	lo, hi := c.Boundaries[k], c.Boundaries[k+1]
	if hi <= lo {
		return lo
	}
	if u < (x-lo)/(hi-lo) {
		return hi
	}
	return lo
}

// Evaluate computes the cost of the codebook's boundaries over a value set.
func (c *Codebook) Evaluate(values, weights []float64) (float64, error) {
	return quiver.Evaluate(values, weights, c.Boundaries)
}

func (c *Codebook) clone() *Codebook {
	cp := *c
	cp.Boundaries = slices.Clone(c.Boundaries)
	return &cp
}
