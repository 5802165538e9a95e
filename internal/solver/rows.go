package solver

import (
	"context"
	"math/bits"

	"golang.org/x/sync/errgroup"
)

// minParallelSpan is the smallest row span worth splitting across workers.
const minParallelSpan = 1024

// table holds the DP state of one solve: the previous and current rows of
// D and the argmin of every evaluated cell.
type table struct {
	x       []float64
	p       prefix
	prev    []float64
	cur     []float64
	arg     [][]int32
	workers int
}

// binCost returns the cost of a bin whose boundaries sit on points a and b.
func (t *table) binCost(a, b int) float64 {
	return t.p.interior(a, b).BinCost(t.x[a], t.x[b])
}

// candidate is the value of closing bin k at point j with the previous
// boundary on point m: D[k-1][m] + C(m, j). Row minimizers only compare
// candidates, so any monotone search over m can be plugged in.
func (t *table) candidate(m, j int) float64 {
	return t.prev[m] + t.binCost(m, j)
}

// rowMinimizer fills cur[j] and arg[k][j] for j in [lo, hi], choosing for
// each cell the leftmost m in [k-1, j-1] that minimizes candidate(m, j).
type rowMinimizer interface {
	minimizeRow(ctx context.Context, t *table, k, lo, hi int) error
}

// scanRows evaluates every candidate of every cell: O(n) per cell.
type scanRows struct{}

func (scanRows) minimizeRow(ctx context.Context, t *table, k, lo, hi int) error {
	span := hi - lo + 1
	if t.workers <= 1 || span < minParallelSpan {
		scanRange(t, k, lo, hi)
		return nil
	}

	chunk := (span + t.workers - 1) / t.workers
	g, _ := errgroup.WithContext(ctx)
	for start := lo; start <= hi; start += chunk {
		end := min(start+chunk-1, hi)
		g.Go(func() error {
			scanRange(t, k, start, end)
			return nil
		})
	}
	return g.Wait()
}

func scanRange(t *table, k, lo, hi int) {
	arg := t.arg[k]
	for j := lo; j <= hi; j++ {
		best, bestM := t.candidate(k-1, j), k-1
		for m := k; m < j; m++ {
			if c := t.candidate(m, j); c < best {
				best, bestM = c, m
			}
		}
		t.cur[j] = best
		arg[j] = int32(bestM)
	}
}

// divideRows exploits the monotone leftmost argmin of the bin cost: if
// opt(j) is the chosen split for cell j then opt(j') <= opt(j) for j' < j
// and opt(j') >= opt(j) for j' > j. Each recursion level scans O(n)
// candidates, giving O(n log n) per row.
type divideRows struct{}

func (divideRows) minimizeRow(ctx context.Context, t *table, k, lo, hi int) error {
	depth := 0
	if t.workers > 1 && hi-lo+1 >= minParallelSpan {
		depth = bits.Len(uint(t.workers)) - 1
	}
	g, _ := errgroup.WithContext(ctx)
	divide(g, t, k, lo, hi, k-1, hi-1, depth)
	return g.Wait()
}

func divide(g *errgroup.Group, t *table, k, lo, hi, optLo, optHi, depth int) {
	if lo > hi {
		return
	}
	mid := int(uint(lo+hi) >> 1)

	top := min(mid-1, optHi)
	best, bestM := t.candidate(optLo, mid), optLo
	for m := optLo + 1; m <= top; m++ {
		if c := t.candidate(m, mid); c < best {
			best, bestM = c, m
		}
	}
	t.cur[mid] = best
	t.arg[k][mid] = int32(bestM)

	if depth > 0 {
		g.Go(func() error {
			divide(g, t, k, lo, mid-1, optLo, bestM, depth-1)
			return nil
		})
		divide(g, t, k, mid+1, hi, bestM, optHi, depth-1)
		return
	}
	divide(g, t, k, lo, mid-1, optLo, bestM, 0)
	divide(g, t, k, mid+1, hi, bestM, optHi, 0)
}
