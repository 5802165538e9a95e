package quiver

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    constructs *prometheus.CounterVec
//	    latency    *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordConstruct(mode quiver.Mode, n, s int, d time.Duration, err error) {
//	    p.constructs.WithLabelValues(mode.String()).Inc()
//	    p.latency.WithLabelValues(mode.String()).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordConstruct is called after each construction.
	// n is the input size, s the bin count, duration the total time taken,
	// err is nil if successful.
	RecordConstruct(mode Mode, n, s int, duration time.Duration, err error)

	// RecordSketch is called after a sketch was built in approximate mode.
	// n is the input size, m the number of sketch points.
	RecordSketch(n, m int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordConstruct(Mode, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSketch(int, int, time.Duration)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ConstructCount      atomic.Int64
	ConstructErrors     atomic.Int64
	ConstructTotalNanos atomic.Int64
	ConstructPoints     atomic.Int64
	ExactCount          atomic.Int64
	AcceleratedCount    atomic.Int64
	ApproximateCount    atomic.Int64
	SketchCount         atomic.Int64
	SketchPoints        atomic.Int64
	SketchTotalNanos    atomic.Int64
}

// RecordConstruct implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConstruct(mode Mode, n, s int, duration time.Duration, err error) {
	b.ConstructCount.Add(1)
	b.ConstructTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ConstructErrors.Add(1)
		return
	}
	b.ConstructPoints.Add(int64(n))
	switch mode {
	case ModeExact:
		b.ExactCount.Add(1)
	case ModeAccelerated:
		b.AcceleratedCount.Add(1)
	case ModeApproximate:
		b.ApproximateCount.Add(1)
	}
}

// RecordSketch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSketch(n, m int, duration time.Duration) {
	b.SketchCount.Add(1)
	b.SketchPoints.Add(int64(m))
	b.SketchTotalNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of the current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ConstructCount:    b.ConstructCount.Load(),
		ConstructErrors:   b.ConstructErrors.Load(),
		ConstructAvgNanos: avg(b.ConstructTotalNanos.Load(), b.ConstructCount.Load()),
		ConstructPoints:   b.ConstructPoints.Load(),
		ExactCount:        b.ExactCount.Load(),
		AcceleratedCount:  b.AcceleratedCount.Load(),
		ApproximateCount:  b.ApproximateCount.Load(),
		SketchCount:       b.SketchCount.Load(),
		SketchAvgPoints:   avg(b.SketchPoints.Load(), b.SketchCount.Load()),
		SketchAvgNanos:    avg(b.SketchTotalNanos.Load(), b.SketchCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ConstructCount    int64
	ConstructErrors   int64
	ConstructAvgNanos int64
	ConstructPoints   int64
	ExactCount        int64
	AcceleratedCount  int64
	ApproximateCount  int64
	SketchCount       int64
	SketchAvgPoints   int64
	SketchAvgNanos    int64
}
