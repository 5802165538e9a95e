package quiver

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/quiver/internal/solver"
	"github.com/hupe1980/quiver/resource"
	"github.com/hupe1980/quiver/sketch"
)

// DefaultMaxTableBytes is the DP table ceiling of a single construction
// unless WithMaxTableBytes overrides it.
const DefaultMaxTableBytes = solver.DefaultMaxTableBytes

// DefaultSketchSize is the number of sketch points used by ModeApproximate
// unless WithSketchSize overrides it.
const DefaultSketchSize = 1000

type options struct {
	mode             Mode
	innerMode        Mode
	sketchSize       int
	sketcher         sketch.Sketcher
	workers          int
	rc               *resource.Controller
	maxTableBytes    int64
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Quantizer behavior.
type Option func(*options)

// WithMode selects the solver. The default is ModeAccelerated.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithSketchSize sets M, the maximum number of sketch points in
// ModeApproximate. Sketches are solved at every ladder size up to M (see
// sketch.Levels) and the cheapest wins, so a larger M never costs more. At
// M >= n the result is exact. Must be at least 1.
func WithSketchSize(m int) Option {
	return func(o *options) {
		o.sketchSize = m
	}
}

// WithSketcher configures how ModeApproximate reduces its input.
//
// If nil is passed, sketch.Default is used.
func WithSketcher(s sketch.Sketcher) Option {
	return func(o *options) {
		if s == nil {
			s = sketch.Default
		}
		o.sketcher = s
	}
}

// WithInnerMode selects the exact solver ModeApproximate runs on its sketch.
// Only ModeExact and ModeAccelerated are accepted; the default is
// ModeAccelerated.
func WithInnerMode(mode Mode) Option {
	return func(o *options) {
		o.innerMode = mode
	}
}

// WithWorkers bounds the goroutines a single construction may use to fill
// DP rows, and the number of inputs ConstructBatch solves at once when no
// resource controller limits it.
//
// If workers <= 0, runtime.GOMAXPROCS(0) is used.
func WithWorkers(workers int) Option {
	return func(o *options) {
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		o.workers = workers
	}
}

// WithResourceController attaches a memory budget and batch concurrency
// limit. A nil controller means unlimited.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:    256 << 20,
//	    MaxConcurrentBuilds: 4,
//	})
//	q, _ := quiver.New(quiver.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithMaxTableBytes caps the DP table memory of a single construction.
// Larger requests fail with ErrResourceExhausted before anything is
// allocated, even without a resource controller. Values <= 0 remove the cap.
func WithMaxTableBytes(limit int64) Option {
	return func(o *options) {
		o.maxTableBytes = limit
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &quiver.BasicMetricsCollector{}
//	q, _ := quiver.New(quiver.WithMetricsCollector(metrics))
//	// ... use q ...
//	stats := metrics.GetStats()
//	fmt.Printf("Constructs: %d, Avg latency: %dns\n", stats.ConstructCount, stats.ConstructAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := quiver.NewJSONLogger(slog.LevelDebug)
//	q, _ := quiver.New(quiver.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		mode:             ModeAccelerated,
		innerMode:        ModeAccelerated,
		sketchSize:       DefaultSketchSize,
		sketcher:         sketch.Default,
		maxTableBytes:    DefaultMaxTableBytes,
		workers:          runtime.GOMAXPROCS(0),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
