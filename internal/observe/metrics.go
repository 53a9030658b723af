// Package observe provides the OpenTelemetry metrics recorded while
// listening: per-block outcomes and latency, input level, detected notes and
// capture overruns.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) records into
// the global meter provider, which is a no-op until [InitProvider] installs
// the Prometheus-backed SDK. Tests should use [NewMetrics] with their own
// [metric.MeterProvider].
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/0xlemi/notelisten"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// Blocks counts analysed blocks. Use with attribute:
	//   attribute.String("outcome", ...)
	Blocks metric.Int64Counter

	// BlockDuration tracks the time spent analysing one block.
	BlockDuration metric.Float64Histogram

	// Level tracks the RMS level of analysed blocks.
	Level metric.Float64Histogram

	// Notes counts accepted estimates. Use with attribute:
	//   attribute.String("note", ...)
	Notes metric.Int64Counter

	// DroppedBlocks counts blocks the capture side discarded because
	// analysis fell behind.
	DroppedBlocks metric.Int64Counter
}

// processingBuckets are histogram boundaries (in seconds) around the cost of
// one FFT-sized block.
var processingBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// levelBuckets are histogram boundaries for RMS levels in [0, 1].
var levelBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Blocks, err = m.Int64Counter("notelisten.blocks",
		metric.WithDescription("Total analysed audio blocks by outcome."),
	); err != nil {
		return nil, err
	}
	if met.BlockDuration, err = m.Float64Histogram("notelisten.block.duration",
		metric.WithDescription("Time spent analysing one audio block."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(processingBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Level, err = m.Float64Histogram("notelisten.block.level",
		metric.WithDescription("RMS level of analysed audio blocks."),
		metric.WithExplicitBucketBoundaries(levelBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Notes, err = m.Int64Counter("notelisten.notes",
		metric.WithDescription("Total detected notes by note name and octave."),
	); err != nil {
		return nil, err
	}
	if met.DroppedBlocks, err = m.Int64Counter("notelisten.capture.dropped",
		metric.WithDescription("Audio blocks dropped because analysis fell behind capture."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Call [InitProvider] first if the
// metrics should be exported.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordBlock records one analysed block.
func (m *Metrics) RecordBlock(ctx context.Context, outcome string, took time.Duration, level float64) {
	m.Blocks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.BlockDuration.Record(ctx, took.Seconds())
	m.Level.Record(ctx, level)
}

// RecordNote records one detected note, e.g. "A4".
func (m *Metrics) RecordNote(ctx context.Context, note string) {
	m.Notes.Add(ctx, 1, metric.WithAttributes(attribute.String("note", note)))
}

// RecordDropped records n blocks lost on the capture side.
func (m *Metrics) RecordDropped(ctx context.Context, n int64) {
	if n <= 0 {
		return
	}
	m.DroppedBlocks.Add(ctx, n)
}
