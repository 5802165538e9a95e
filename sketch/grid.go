package sketch

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// UniformGrid places m evenly spaced points over [values[0], values[n-1]]
// and splits every input point's weight between its two neighbouring grid
// points in proportion to proximity. This preserves both the total weight
// and the weighted mean of the input. Grid points that receive no weight
// are kept, they remain valid boundary candidates.
type UniformGrid struct{}

// Name returns "uniform-grid".
func (UniformGrid) Name() string { return "uniform-grid" }

// Sketch implements Sketcher.
func (UniformGrid) Sketch(values, weights []float64, m int) []Point {
	n := len(values)
	if m >= n {
		return identity(values, weights)
	}

	lo, hi := values[0], values[n-1]
	if m == 1 || lo == hi {
		var weight float64
		if weights == nil {
			weight = float64(n)
		} else {
			weight = floats.Sum(weights)
		}
		var ws []float64
		if weight > 0 {
			ws = weights
		}
		mean := max(lo, min(stat.Mean(values, ws), hi))
		return []Point{{Value: mean, Weight: weight}}
	}

	grid := make([]float64, m)
	floats.Span(grid, lo, hi)
	step := (hi - lo) / float64(m-1)

	points := make([]Point, m)
	for i, g := range grid {
		points[i].Value = g
	}

	for i, x := range values {
		w := weightAt(weights, i)
		if w == 0 {
			continue
		}
		cell := min(int((x-lo)/step), m-2)
		frac := (x - grid[cell]) / step
		frac = max(0, min(frac, 1))
		points[cell+1].Weight += w * frac
		points[cell].Weight += w - w*frac
	}
	return points
}
