// Package solver implements the partition dynamic program behind optimal
// scalar quantizer construction.
//
// Boundaries are chosen among input points: for a fixed assignment of points
// to bins the objective is linear in each interior boundary, so moving a
// boundary to a neighbouring point never increases the cost. The DP picks
// s+1 point indices 0 = i_0 < i_1 < ... < i_s = n-1 minimizing the sum of
// per-bin costs, each computed in O(1) from prefix Moments.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/quiver/errmodel"
	"github.com/hupe1980/quiver/resource"
	"github.com/hupe1980/quiver/sketch"
)

// Strategy selects how the DP is solved.
type Strategy int

const (
	// Exact scans every split candidate of every DP cell.
	Exact Strategy = iota
	// Accelerated uses divide and conquer over the monotone optimal split.
	Accelerated
	// Approximate solves the DP over a bounded-size sketch of the input.
	Approximate
)

// MaxPoints is the largest input a solve accepts. Argmin rows store point
// indices as int32 and the support set is a 32-bit bitmap.
const MaxPoints = math.MaxInt32

// DefaultMaxTableBytes is the table ceiling the quiver options start from.
const DefaultMaxTableBytes int64 = 4 << 30

// ErrMemoryBudget is returned when the DP tables exceed MaxTableBytes or do
// not fit the resource controller's memory budget.
var ErrMemoryBudget = errors.New("solver: memory budget exceeded")

// BudgetError reports a refused DP table reservation.
type BudgetError struct {
	Requested int64
	InUse     int64
	Limit     int64
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("solver: dp tables need %d bytes, %d of %d in use", e.Requested, e.InUse, e.Limit)
}

func (e *BudgetError) Unwrap() error { return ErrMemoryBudget }

// Request describes one solve. Values must be sorted ascending and finite,
// Weights nil or of the same length and non-negative, Bins >= 1. The caller
// validates; Solve does not re-check.
type Request struct {
	Values  []float64
	Weights []float64
	Bins    int

	Strategy Strategy
	// Inner is the exact strategy used by Approximate (Exact or Accelerated).
	Inner      Strategy
	SketchSize int
	Sketcher   sketch.Sketcher

	Workers   int
	Resources *resource.Controller
	// MaxTableBytes caps the DP tables of one partition independently of
	// Resources. Zero or less disables the cap.
	MaxTableBytes int64
}

// Result is the outcome of a successful solve.
type Result struct {
	Boundaries []float64
	// Cost is the objective of Boundaries over the original input.
	Cost float64
	// Support is the number of boundary candidates the DP searched.
	Support int
	// SketchSize is the number of sketch points, 0 if no sketch was built.
	SketchSize     int
	SketchDuration time.Duration
}

// Solve computes the boundaries for req.
func Solve(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}

	var err error
	switch req.Strategy {
	case Exact, Accelerated:
		res.Boundaries, res.Support, err = solvePoints(ctx, req.Values, req.Weights, req, rowsFor(req.Strategy))
	case Approximate:
		err = solveApproximate(ctx, req, res)
	default:
		err = fmt.Errorf("solver: unknown strategy %d", req.Strategy)
	}
	if err != nil {
		return nil, err
	}

	res.Cost, err = errmodel.Cost(req.Values, req.Weights, res.Boundaries)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func rowsFor(s Strategy) rowMinimizer {
	if s == Exact {
		return scanRows{}
	}
	return divideRows{}
}

// solveApproximate runs the inner strategy on the input itself when it fits
// the sketch size. Otherwise it solves one sketch per level of
// sketch.Levels(SketchSize) and keeps the boundaries with the lowest cost on
// the original input. Larger levels win ties.
func solveApproximate(ctx context.Context, req Request, res *Result) error {
	rows := rowsFor(req.Inner)
	n := len(req.Values)

	if n <= req.SketchSize {
		b, support, err := solvePoints(ctx, req.Values, req.Weights, req, rows)
		if err != nil {
			return err
		}
		res.Boundaries, res.Support = b, support
		return nil
	}

	sk := req.Sketcher
	if sk == nil {
		sk = sketch.Default
	}

	best := math.Inf(1)
	for _, level := range sketch.Levels(req.SketchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		points := sk.Sketch(req.Values, req.Weights, level)
		res.SketchDuration += time.Since(start)

		sv, sw := sketch.Split(points)
		b, support, err := solvePoints(ctx, sv, sw, req, rows)
		if err != nil {
			return err
		}
		pin(b, req.Values[0], req.Values[n-1])

		cost, err := errmodel.Cost(req.Values, req.Weights, b)
		if err != nil {
			return err
		}
		if res.Boundaries == nil || cost < best {
			best = cost
			res.Boundaries, res.Support, res.SketchSize = b, support, len(points)
		}
	}
	return nil
}

// pin moves the outer boundaries onto the data extremes and clamps the
// interior into [lo, hi]. Sketch points may sit inside the data range.
func pin(b []float64, lo, hi float64) {
	last := len(b) - 1
	b[0], b[last] = lo, hi
	for k := 1; k < last; k++ {
		b[k] = max(lo, min(b[k], hi))
	}
}

// solvePoints returns optimal boundaries drawn from values, and the number
// of candidates that were searched.
func solvePoints(ctx context.Context, values, weights []float64, req Request, rows rowMinimizer) ([]float64, int, error) {
	cv, cw, card := compact(values, weights)
	s := req.Bins

	if s+1 >= card {
		return pad(cv, s), card, nil
	}

	idx, err := partition(ctx, cv, cw, s, rows, req)
	if err != nil {
		return nil, card, err
	}

	b := make([]float64, s+1)
	for k, i := range idx {
		b[k] = cv[i]
	}
	return b, card, nil
}

// tableBytes estimates the memory of one partition call: prefix Moments,
// two DP rows and one argmin row per bin beyond the first.
func tableBytes(n, s int) int64 {
	const momentsSize, rowCell, argCell = 24, 8, 4
	return int64(n+1)*momentsSize + 2*int64(n)*rowCell + int64(s-1)*int64(n)*argCell
}

// partition solves the DP for 1 <= s <= n-2 and returns the s+1 boundary
// indices.
func partition(ctx context.Context, x, w []float64, s int, rows rowMinimizer, req Request) ([]int, error) {
	n := len(x)
	if s == 1 {
		return []int{0, n - 1}, nil
	}

	bytes := tableBytes(n, s)
	if limit := req.MaxTableBytes; limit > 0 && bytes > limit {
		return nil, &BudgetError{Requested: bytes, Limit: limit}
	}
	rc := req.Resources
	if !rc.TryAcquireMemory(bytes) {
		return nil, &BudgetError{Requested: bytes, InUse: rc.MemoryUsage(), Limit: rc.MemoryLimit()}
	}
	defer rc.ReleaseMemory(bytes)

	t := &table{
		x:       x,
		p:       newPrefix(x, w),
		prev:    make([]float64, n),
		cur:     make([]float64, n),
		arg:     make([][]int32, s+1),
		workers: req.Workers,
	}

	// Row 1: a single bin from point 0 to point j.
	for j := 1; j <= n-s; j++ {
		t.prev[j] = t.binCost(0, j)
	}

	for k := 2; k <= s; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Bin k must leave room for s-k more bins; the last bin closes at n-1.
		lo, hi := k, n-1-(s-k)
		if k == s {
			lo = n - 1
		}
		t.arg[k] = make([]int32, n)
		if err := rows.minimizeRow(ctx, t, k, lo, hi); err != nil {
			return nil, err
		}
		t.prev, t.cur = t.cur, t.prev
	}

	idx := make([]int, s+1)
	idx[s] = n - 1
	for k := s; k >= 2; k-- {
		idx[k-1] = int(t.arg[k][idx[k]])
	}
	return idx, nil
}
