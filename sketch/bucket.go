package sketch

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EqualWeight groups consecutive points into at most m buckets of roughly
// equal cumulative weight. A point belongs to the bucket containing the
// midpoint of its own weight interval, so a single heavy point never spans
// two buckets. Inputs with zero total weight fall back to EqualCount.
type EqualWeight struct{}

// Name returns "equal-weight".
func (EqualWeight) Name() string { return "equal-weight" }

// Sketch implements Sketcher.
func (EqualWeight) Sketch(values, weights []float64, m int) []Point {
	n := len(values)
	if m >= n {
		return identity(values, weights)
	}

	var total float64
	if weights == nil {
		total = float64(n)
	} else {
		total = floats.Sum(weights)
	}
	if total <= 0 {
		return EqualCount{}.Sketch(values, weights, m)
	}

	points := make([]Point, 0, m)
	start, bucket := 0, -1
	var cum float64
	for i := range n {
		w := weightAt(weights, i)
		b := min(int(float64(m)*(cum+w/2)/total), m-1)
		cum += w
		if b != bucket && i > start {
			points = append(points, reduce(values, weights, start, i))
			start = i
		}
		bucket = b
	}
	return append(points, reduce(values, weights, start, n))
}

// EqualCount groups consecutive points into m buckets of (almost) the same
// size.
type EqualCount struct{}

// Name returns "equal-count".
func (EqualCount) Name() string { return "equal-count" }

// Sketch implements Sketcher.
func (EqualCount) Sketch(values, weights []float64, m int) []Point {
	n := len(values)
	if m >= n {
		return identity(values, weights)
	}

	points := make([]Point, 0, m)
	for b := range m {
		lo, hi := b*n/m, (b+1)*n/m
		if lo < hi {
			points = append(points, reduce(values, weights, lo, hi))
		}
	}
	return points
}

// reduce collapses values[lo:hi] to its weighted mean, or the plain mean if
// the bucket carries no weight. The mean is clamped to the bucket's range so
// rounding can never reorder neighbouring buckets.
func reduce(values, weights []float64, lo, hi int) Point {
	vs := values[lo:hi]
	var ws []float64
	weight := float64(hi - lo)
	if weights != nil {
		ws = weights[lo:hi]
		weight = floats.Sum(ws)
		if weight <= 0 {
			ws = nil
		}
	}

	mean := stat.Mean(vs, ws)
	mean = max(vs[0], min(mean, vs[len(vs)-1]))
	return Point{Value: mean, Weight: weight}
}

func identity(values, weights []float64) []Point {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Value: v, Weight: weightAt(weights, i)}
	}
	return points
}
