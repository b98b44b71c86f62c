// Package metrics implements in-process metric primitives that export in the
// Prometheus text exposition format. It carries no collector dependency; the
// output is served by the metrics middleware endpoint.
package metrics

// MetricType identifies how a metric accumulates values.
type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// Metric is implemented by every primitive and vector in this package.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	// Describe renders the metric, including HELP and TYPE lines, in
	// Prometheus text format.
	Describe() string
}

// Counter only goes up.
type Counter interface {
	Metric
	Inc()
	Add(float64)
	Get() float64
}

// Gauge holds a value that can move in both directions.
type Gauge interface {
	Metric
	Set(float64)
	Inc()
	Dec()
	Add(float64)
	Sub(float64)
	Get() float64
}

// Histogram counts observations into cumulative buckets.
type Histogram interface {
	Metric
	Observe(float64)
}

// Vector groups metrics that share a name but differ in label values.
type Vector interface {
	Metric
	// WithLabels resolves the child metric for the given label set.
	WithLabels(labels map[string]string) Metric
}

// CounterVec is a labeled family of counters.
type CounterVec interface {
	Vector
	With(labels map[string]string) Counter
}

// GaugeVec is a labeled family of gauges.
type GaugeVec interface {
	Vector
	With(labels map[string]string) Gauge
}

// HistogramVec is a labeled family of histograms.
type HistogramVec interface {
	Vector
	With(labels map[string]string) Histogram
}
