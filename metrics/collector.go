// Package metrics defines the collector interface the codec reports to.
package metrics

// Metric names reported by the codec.
const (
	MetricDumps            = "compressio_dumps_total"
	MetricLoads            = "compressio_loads_total"
	MetricFailures         = "compressio_failures_total"
	MetricBytesSerialized  = "compressio_bytes_serialized_total"
	MetricBytesStored      = "compressio_bytes_stored_total"
	MetricCompressionRatio = "compressio_compression_ratio"
	MetricCallSeconds      = "compressio_call_seconds"

	// MetricMethods is a gauge of the compression methods known to a codec,
	// set when the codec is created.
	MetricMethods = "compressio_registered_methods"
)

// Collector receives codec metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
