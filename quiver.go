package quiver

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/quiver/errmodel"
	"github.com/hupe1980/quiver/internal/solver"
)

// Mode selects the solver used by a Quantizer.
type Mode int

const (
	// ModeExact runs the O(s·n²) partition DP and returns the optimal
	// boundaries.
	ModeExact Mode = iota
	// ModeAccelerated runs the same DP with divide and conquer over the
	// monotone optimal split. Same cost as ModeExact in O(s·n·log n).
	ModeAccelerated
	// ModeApproximate solves the DP on a sketch of at most M points.
	ModeApproximate
)

// String returns the stable name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeAccelerated:
		return "accelerated"
	case ModeApproximate:
		return "approximate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode returns the mode with the given name (case-insensitive).
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "exact":
		return ModeExact, nil
	case "", "accelerated":
		return ModeAccelerated, nil
	case "approximate":
		return ModeApproximate, nil
	default:
		return 0, argError("mode", "unknown mode %q", name)
	}
}

func (m Mode) valid() bool {
	return m >= ModeExact && m <= ModeApproximate
}

func (m Mode) strategy() solver.Strategy {
	switch m {
	case ModeExact:
		return solver.Exact
	case ModeApproximate:
		return solver.Approximate
	default:
		return solver.Accelerated
	}
}

// Result is the outcome of one construction.
type Result struct {
	// Boundaries holds s+1 non-decreasing values with Boundaries[0] <= X[0]
	// and Boundaries[s] >= X[n-1].
	Boundaries []float64
	// Cost is the weighted objective of Boundaries over the input.
	Cost float64
	Mode Mode
	// Points is the input size n.
	Points int
	// Support is the number of boundary candidates the DP searched.
	Support int
	// SketchSize is the number of sketch points, 0 if no sketch was built.
	SketchSize int
	Duration   time.Duration
}

// Input is one value set of a batch construction.
type Input struct {
	Values  []float64
	Weights []float64
}

// Quantizer constructs optimal scalar quantizers. It holds configuration
// only and is safe for concurrent use.
type Quantizer struct {
	opts options
}

// New creates a Quantizer. Invalid configuration is reported as an
// *ArgumentError.
func New(optFns ...Option) (*Quantizer, error) {
	o := applyOptions(optFns)

	if !o.mode.valid() {
		return nil, argError("mode", "unknown mode %d", int(o.mode))
	}
	if o.innerMode != ModeExact && o.innerMode != ModeAccelerated {
		return nil, argError("inner mode", "%s is not an exact solver", o.innerMode)
	}
	if o.mode == ModeApproximate && o.sketchSize < 1 {
		return nil, argError("sketch size", "must be at least 1, got %d", o.sketchSize)
	}

	o.logger = o.logger.WithMode(o.mode)

	return &Quantizer{opts: o}, nil
}

// Mode returns the configured solver mode.
func (q *Quantizer) Mode() Mode { return q.opts.mode }

// Construct computes s+1 boundaries for values, which must be sorted
// ascending and finite. weights may be nil (every weight is 1); otherwise it
// must have the same length as values and hold finite non-negative entries.
//
// Points with zero weight never attract an interior boundary but are still
// bracketed. Requests for s >= n bins return the distinct support points
// padded with the maximum, at zero cost.
func (q *Quantizer) Construct(ctx context.Context, values, weights []float64, s int) (*Result, error) {
	start := time.Now()
	res, err := q.construct(ctx, values, weights, s)
	elapsed := time.Since(start)
	if res != nil {
		res.Duration = elapsed
	}

	q.opts.metricsCollector.RecordConstruct(q.opts.mode, len(values), s, elapsed, err)
	q.opts.logger.LogConstruct(ctx, len(values), s, res, err)

	return res, err
}

func (q *Quantizer) construct(ctx context.Context, values, weights []float64, s int) (*Result, error) {
	if err := validate(values, weights, s); err != nil {
		return nil, err
	}

	out, err := solver.Solve(ctx, solver.Request{
		Values:     values,
		Weights:    weights,
		Bins:       s,
		Strategy:   q.opts.mode.strategy(),
		Inner:      q.opts.innerMode.strategy(),
		SketchSize: q.opts.sketchSize,
		Sketcher:   q.opts.sketcher,
		Workers:    q.opts.workers,
		Resources:  q.opts.rc,

		MaxTableBytes: q.opts.maxTableBytes,
	})
	if err != nil {
		return nil, translateError(err)
	}

	if out.SketchSize > 0 {
		q.opts.metricsCollector.RecordSketch(len(values), out.SketchSize, out.SketchDuration)
	}

	return &Result{
		Boundaries: out.Boundaries,
		Cost:       out.Cost,
		Mode:       q.opts.mode,
		Points:     len(values),
		Support:    out.Support,
		SketchSize: out.SketchSize,
	}, nil
}

// ConstructBatch constructs a quantizer with s bins for every input. Inputs
// are solved concurrently, bounded by the resource controller's build slots
// (or the worker count if no controller is configured). The batch is all or
// nothing: the first failure cancels the remaining work and is returned
// with the index of the failing input.
func (q *Quantizer) ConstructBatch(ctx context.Context, inputs []Input, s int) ([]*Result, error) {
	start := time.Now()
	logger := q.opts.logger.WithBins(s)

	for i, in := range inputs {
		if err := validate(in.Values, in.Weights, s); err != nil {
			err = fmt.Errorf("input %d: %w", i, err)
			logger.LogBatch(ctx, len(inputs), time.Since(start), err)
			return nil, err
		}
	}

	limit := q.opts.workers
	if q.opts.rc != nil {
		limit = q.opts.rc.MaxConcurrentBuilds()
	}

	results := make([]*Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, limit))
	for i, in := range inputs {
		g.Go(func() error {
			if err := q.opts.rc.AcquireBuild(gctx); err != nil {
				return err
			}
			defer q.opts.rc.ReleaseBuild()

			res, err := q.Construct(gctx, in.Values, in.Weights, s)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	logger.LogBatch(ctx, len(inputs), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Construct is a convenience wrapper that builds a Quantizer from optFns and
// returns only the boundaries.
func Construct(ctx context.Context, values, weights []float64, s int, optFns ...Option) ([]float64, error) {
	q, err := New(optFns...)
	if err != nil {
		return nil, err
	}
	res, err := q.Construct(ctx, values, weights, s)
	if err != nil {
		return nil, err
	}
	return res.Boundaries, nil
}

// Evaluate returns the weighted objective of boundaries over values.
func Evaluate(values, weights, boundaries []float64) (float64, error) {
	cost, err := errmodel.Cost(values, weights, boundaries)
	return cost, translateError(err)
}

// NormalizedError returns Evaluate divided by the weighted signal energy.
func NormalizedError(values, weights, boundaries []float64) (float64, error) {
	nmse, err := errmodel.NormalizedError(values, weights, boundaries)
	return nmse, translateError(err)
}

// checkLen bounds the number of points a construction accepts.
func checkLen(n int) error {
	switch {
	case n == 0:
		return argError("values", "must not be empty")
	case n > solver.MaxPoints:
		return argError("values", "%d points exceed the limit of %d", n, solver.MaxPoints)
	}
	return nil
}

func validate(values, weights []float64, s int) error {
	n := len(values)
	if err := checkLen(n); err != nil {
		return err
	}
	if s < 1 {
		return argError("s", "must be at least 1, got %d", s)
	}

	for i, x := range values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return argError("values", "value %d is not finite", i)
		}
		if i > 0 && x < values[i-1] {
			return argError("values", "not sorted ascending at index %d", i)
		}
	}

	if weights == nil {
		return nil
	}
	if len(weights) != n {
		return argError("weights", "length %d does not match %d values", len(weights), n)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return argError("weights", "weight %d is not finite", i)
		}
		if w < 0 {
			return argError("weights", "weight %d is negative", i)
		}
	}
	return nil
}
