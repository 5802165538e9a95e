package solver

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// supportSet returns the point indices that may carry an optimal boundary:
// both extremes plus every point with positive weight. Zero-weight points
// add nothing to any bin cost, so a boundary on them is never better than
// one on a weighted neighbour. Indices are uint32; callers keep n within
// MaxPoints.
func supportSet(weights []float64, n int) *roaring.Bitmap {
	rb := roaring.New()
	if weights == nil {
		rb.AddRange(0, uint64(n))
		return rb
	}
	rb.Add(0)
	rb.Add(uint32(n - 1))
	for i, w := range weights {
		if w > 0 {
			rb.Add(uint32(i))
		}
	}
	return rb
}

// compact restricts values and weights to their support set. The input
// slices are returned unchanged when every point is in the support.
func compact(values, weights []float64) ([]float64, []float64, int) {
	n := len(values)
	rb := supportSet(weights, n)
	card := int(rb.GetCardinality())
	if card == n {
		return values, weights, card
	}

	cv := make([]float64, 0, card)
	cw := make([]float64, 0, card)
	it := rb.Iterator()
	for it.HasNext() {
		i := it.Next()
		cv = append(cv, values[i])
		cw = append(cw, weights[i])
	}
	return cv, cw, card
}

// pad returns s+1 boundaries when there are at most s+1 candidate points:
// every point becomes a boundary and the tail repeats the maximum.
func pad(points []float64, s int) []float64 {
	b := make([]float64, s+1)
	n := copy(b, points)
	last := points[len(points)-1]
	for i := n; i <= s; i++ {
		b[i] = last
	}
	return b
}
