package testutil

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(42).SortedNormal(100)
	b := NewRNG(42).SortedNormal(100)
	assert.Equal(t, a, b)
	assert.True(t, sort.Float64sAreSorted(a))

	r := NewRNG(7)
	first := r.Weights(10)
	r.Reset()
	assert.Equal(t, first, r.Weights(10))
	assert.Equal(t, int64(7), r.Seed())
}

func TestRNG_Generators(t *testing.T) {
	r := NewRNG(1)

	ln := r.SortedLogNormal(50)
	assert.True(t, sort.Float64sAreSorted(ln))
	for _, v := range ln {
		assert.Greater(t, v, 0.0)
	}

	ints := r.SortedIntegers(100, 5)
	assert.True(t, sort.Float64sAreSorted(ints))
	for _, v := range ints {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 5.0)
	}

	for _, w := range r.Weights(100) {
		assert.Greater(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
	}

	zeros := 0
	for _, w := range r.SparseWeights(1000, 0.5) {
		if w == 0 {
			zeros++
		}
	}
	assert.InDelta(t, 500, zeros, 100)
}

func TestBruteForceCost(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	assert.Equal(t, 56.0, BruteForceCost(values, nil, 1))
	assert.Equal(t, 14.0, BruteForceCost(values, nil, 2))
	assert.Equal(t, 0.0, BruteForceCost(values, nil, 7))
	assert.Equal(t, 0.0, BruteForceCost(values, nil, 20))
}
