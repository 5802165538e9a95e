package testutil

import "math"

// BruteForceCost returns the minimum objective over every choice of s+1
// boundaries among the input points with the extremes fixed. It is
// exponential in s and only meant for inputs of a dozen points or so.
func BruteForceCost(values, weights []float64, s int) float64 {
	n := len(values)
	if s+1 >= n {
		return 0
	}

	idx := make([]int, s+1)
	idx[s] = n - 1
	best := math.Inf(1)

	var rec func(k, from int)
	rec = func(k, from int) {
		if k == s {
			if c := pointCost(values, weights, idx); c < best {
				best = c
			}
			return
		}
		// Leave room for the remaining interior boundaries.
		for i := from; i <= n-1-(s-k); i++ {
			idx[k] = i
			rec(k+1, i+1)
		}
	}
	rec(1, 1)
	return best
}

func pointCost(values, weights []float64, idx []int) float64 {
	var cost float64
	for k := 0; k+1 < len(idx); k++ {
		lo, hi := values[idx[k]], values[idx[k+1]]
		for i := idx[k] + 1; i < idx[k+1]; i++ {
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			cost += w * (values[i] - lo) * (hi - values[i])
		}
	}
	return cost
}
