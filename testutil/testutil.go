package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"
)

// RNG is a seeded, mutex-guarded source of quantizer inputs. Two RNGs with
// the same seed produce identical value and weight vectors.
type RNG struct {
	mu   sync.Mutex
	src  *rand.Rand
	seed int64
}

func NewRNG(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed)), seed: seed}
}

// Reset rewinds the stream to its seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	r.src.Seed(r.seed)
	r.mu.Unlock()
}

func (r *RNG) Seed() int64 { return r.seed }

func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// fill draws n values with gen while holding the lock.
func (r *RNG) fill(n int, gen func(*rand.Rand) float64) []float64 {
	out := make([]float64, n)
	r.mu.Lock()
	for i := range out {
		out[i] = gen(r.src)
	}
	r.mu.Unlock()
	return out
}

func (r *RNG) sorted(n int, gen func(*rand.Rand) float64) []float64 {
	out := r.fill(n, gen)
	slices.Sort(out)
	return out
}

// SortedNormal draws n values from N(0,1), ascending.
func (r *RNG) SortedNormal(n int) []float64 {
	return r.sorted(n, (*rand.Rand).NormFloat64)
}

// SortedLogNormal draws n values from exp(N(0,1)), ascending. The long right
// tail stresses boundary placement.
func (r *RNG) SortedLogNormal(n int) []float64 {
	return r.sorted(n, func(src *rand.Rand) float64 { return math.Exp(src.NormFloat64()) })
}

// SortedIntegers draws n integers from [0, span), ascending. A small span
// yields heavy duplication and a small support set.
func (r *RNG) SortedIntegers(n, span int) []float64 {
	return r.sorted(n, func(src *rand.Rand) float64 { return float64(src.Intn(span)) })
}

// Weights draws n strictly positive weights in (0, 1].
func (r *RNG) Weights(n int) []float64 {
	return r.fill(n, func(src *rand.Rand) float64 { return 1 - src.Float64() })
}

// SparseWeights is Weights with each entry zeroed with probability zeroRate.
func (r *RNG) SparseWeights(n int, zeroRate float64) []float64 {
	return r.fill(n, func(src *rand.Rand) float64 {
		if src.Float64() < zeroRate {
			return 0
		}
		return 1 - src.Float64()
	})
}
