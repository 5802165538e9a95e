// Package sketch reduces a sorted, weighted input to a bounded number of
// representative points while preserving its total weight.
//
// A sketch is what lets the approximate solver run in time that depends only
// on the sketch size: the optimal partition is searched over the sketch
// points instead of the original input.
//
//	pts := sketch.EqualWeight{}.Sketch(values, weights, 1000)
//	v, w := sketch.Split(pts)
//
// Three reductions are provided:
//
//   - EqualWeight: consecutive buckets holding roughly equal weight, each
//     represented by its weighted mean (the default).
//   - EqualCount: consecutive buckets holding the same number of points.
//   - UniformGrid: evenly spaced grid over the value range; each point's
//     weight is split between its two grid neighbours.
//
// All reductions are deterministic and order preserving: the returned points
// are sorted ascending and lie within [values[0], values[n-1]].
package sketch

import (
	"fmt"
)

// Point is a representative value carrying the aggregated weight of the
// input points it replaces.
type Point struct {
	Value  float64
	Weight float64
}

// Sketcher reduces sorted values (with optional weights; nil means unit
// weights) to at most m points whose weights sum to the input's total
// weight. Callers guarantee len(values) >= 1 and m >= 1.
type Sketcher interface {
	Sketch(values, weights []float64, m int) []Point
	Name() string
}

// Default is the sketcher used when none is configured.
var Default Sketcher = EqualWeight{}

// ByName returns a built-in sketcher by its stable name.
func ByName(name string) (Sketcher, error) {
	switch name {
	case "", "equal-weight":
		return EqualWeight{}, nil
	case "equal-count":
		return EqualCount{}, nil
	case "uniform-grid":
		return UniformGrid{}, nil
	default:
		return nil, fmt.Errorf("sketch: unknown sketcher %q", name)
	}
}

// Split unpacks points into parallel value and weight slices.
func Split(points []Point) ([]float64, []float64) {
	values := make([]float64, len(points))
	weights := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
		weights[i] = p.Weight
	}
	return values, weights
}

// TotalWeight sums the weights of points.
func TotalWeight(points []Point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Weight
	}
	return sum
}

func weightAt(weights []float64, i int) float64 {
	if weights == nil {
		return 1
	}
	return weights[i]
}
