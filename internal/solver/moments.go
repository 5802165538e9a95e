package solver

// Moments aggregates the weighted sums a bin cost needs: total weight,
// weighted value and weighted squared value.
//
// Moments is a value type. Add and Sub return new aggregates and never
// mutate the receiver, so DP cells can read shared prefix tables freely.
type Moments struct {
	W   float64
	WX  float64
	WX2 float64
}

// Add returns m extended by a point x with weight w.
func (m Moments) Add(x, w float64) Moments {
	wx := w * x
	return Moments{
		W:   m.W + w,
		WX:  m.WX + wx,
		WX2: m.WX2 + wx*x,
	}
}

// Sub returns the aggregate of the points in m but not in o.
func (m Moments) Sub(o Moments) Moments {
	return Moments{
		W:   m.W - o.W,
		WX:  m.WX - o.WX,
		WX2: m.WX2 - o.WX2,
	}
}

// BinCost returns the weighted cost of the aggregated points inside a bin
// bounded by lo and hi: sum of w*(x-lo)*(hi-x).
func (m Moments) BinCost(lo, hi float64) float64 {
	c := -m.WX2 + (lo+hi)*m.WX - lo*hi*m.W
	if c < 0 {
		// Cancellation noise on (near) empty bins.
		return 0
	}
	return c
}

// prefix holds running Moments: p[i] aggregates points [0, i).
type prefix []Moments

func newPrefix(values, weights []float64) prefix {
	p := make(prefix, len(values)+1)
	for i, x := range values {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		p[i+1] = p[i].Add(x, w)
	}
	return p
}

// interior returns the aggregate of points strictly between indices a and b.
func (p prefix) interior(a, b int) Moments {
	if b-a < 2 {
		return Moments{}
	}
	return p[b].Sub(p[a+1])
}
