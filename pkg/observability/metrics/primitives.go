package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// atomicFloat stores a float64 as raw bits so it can be updated without a lock.
type atomicFloat struct {
	bits uint64
}

func (f *atomicFloat) add(delta float64) {
	for {
		old := atomic.LoadUint64(&f.bits)
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(&f.bits, old, next) {
			return
		}
	}
}

func (f *atomicFloat) store(v float64) {
	atomic.StoreUint64(&f.bits, math.Float64bits(v))
}

func (f *atomicFloat) load() float64 {
	return math.Float64frombits(atomic.LoadUint64(&f.bits))
}

type descriptor struct {
	name string
	help string
	typ  MetricType
}

func (d descriptor) Name() string     { return d.name }
func (d descriptor) Help() string     { return d.help }
func (d descriptor) Type() MetricType { return d.typ }

func (d descriptor) header() string {
	return fmt.Sprintf("# HELP %s %s\n# TYPE %s %s\n", d.name, d.help, d.name, d.typ)
}

// labelSuffix renders a label set as a sorted {k="v",...} block, or "" when empty.
func labelSuffix(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, v))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

type counter struct {
	descriptor
	val atomicFloat
}

// NewCounter creates a counter metric.
func NewCounter(name, help string) Counter {
	return &counter{descriptor: descriptor{name: name, help: help, typ: TypeCounter}}
}

func (c *counter) Inc() { c.Add(1) }

func (c *counter) Add(v float64) {
	// Counters reject negative deltas rather than panicking.
	if v < 0 {
		return
	}
	c.val.add(v)
}

func (c *counter) Get() float64 { return c.val.load() }

func (c *counter) Describe() string {
	return c.header() + fmt.Sprintf("%s %.6f\n", c.name, c.Get())
}

type gauge struct {
	descriptor
	val atomicFloat
}

// NewGauge creates a gauge metric.
func NewGauge(name, help string) Gauge {
	return &gauge{descriptor: descriptor{name: name, help: help, typ: TypeGauge}}
}

func (g *gauge) Set(v float64) { g.val.store(v) }
func (g *gauge) Inc()          { g.val.add(1) }
func (g *gauge) Dec()          { g.val.add(-1) }
func (g *gauge) Add(v float64) { g.val.add(v) }
func (g *gauge) Sub(v float64) { g.val.add(-v) }
func (g *gauge) Get() float64  { return g.val.load() }

func (g *gauge) Describe() string {
	return g.header() + fmt.Sprintf("%s %.6f\n", g.name, g.Get())
}

var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type histogram struct {
	descriptor

	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

// NewHistogram creates a histogram with the given cumulative bucket upper
// bounds. Bounds are sorted; nil falls back to a latency-oriented default set.
func NewHistogram(name, help string, buckets []float64) Histogram {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	bounds := make([]float64, len(buckets))
	copy(bounds, buckets)
	sort.Float64s(bounds)
	return &histogram{
		descriptor: descriptor{name: name, help: help, typ: TypeHistogram},
		buckets:    bounds,
		counts:     make([]uint64, len(bounds)),
	}
}

func (h *histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.total++
	h.sum += v
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
		}
	}
}

// lines renders the bucket/sum/count series. extraLabels is inserted into
// every series so histogramVec can reuse the rendering for its children.
func (h *histogram) lines(name string, extraLabels map[string]string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	suffix := labelSuffix(extraLabels)
	var sb strings.Builder
	for i, bound := range h.buckets {
		sb.WriteString(fmt.Sprintf("%s_bucket%s %d\n", name, mergeLE(bound, extraLabels), h.counts[i]))
	}
	sb.WriteString(fmt.Sprintf("%s_bucket%s %d\n", name, mergeLEInf(extraLabels), h.total))
	sb.WriteString(fmt.Sprintf("%s_sum%s %.6f\n", name, suffix, h.sum))
	sb.WriteString(fmt.Sprintf("%s_count%s %d\n", name, suffix, h.total))
	return sb.String()
}

func mergeLE(bound float64, labels map[string]string) string {
	merged := map[string]string{"le": fmt.Sprintf("%.6g", bound)}
	for k, v := range labels {
		merged[k] = v
	}
	return labelSuffix(merged)
}

func mergeLEInf(labels map[string]string) string {
	merged := map[string]string{"le": "+Inf"}
	for k, v := range labels {
		merged[k] = v
	}
	return labelSuffix(merged)
}

func (h *histogram) Describe() string {
	return h.header() + h.lines(h.name, nil)
}

// family holds the labeled children of a vector keyed by their rendered label
// suffix, so exports come out in a stable order.
type family[T any] struct {
	mu       sync.Mutex
	children map[string]T
	labels   map[string]map[string]string
}

func newFamily[T any]() *family[T] {
	return &family[T]{
		children: make(map[string]T),
		labels:   make(map[string]map[string]string),
	}
}

func (f *family[T]) get(labels map[string]string, create func() T) T {
	key := labelSuffix(labels)

	f.mu.Lock()
	defer f.mu.Unlock()
	if child, ok := f.children[key]; ok {
		return child
	}
	child := create()
	f.children[key] = child
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	f.labels[key] = copied
	return child
}

func (f *family[T]) each(fn func(key string, labels map[string]string, child T)) {
	f.mu.Lock()
	keys := make([]string, 0, len(f.children))
	for k := range f.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	type entry struct {
		key    string
		labels map[string]string
		child  T
	}
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, entry{key: k, labels: f.labels[k], child: f.children[k]})
	}
	f.mu.Unlock()

	for _, e := range entries {
		fn(e.key, e.labels, e.child)
	}
}

type counterVec struct {
	descriptor
	family *family[*counter]
}

// NewCounterVec creates a labeled counter family.
func NewCounterVec(name, help string) CounterVec {
	return &counterVec{
		descriptor: descriptor{name: name, help: help, typ: TypeCounter},
		family:     newFamily[*counter](),
	}
}

func (v *counterVec) WithLabels(labels map[string]string) Metric { return v.With(labels) }

func (v *counterVec) With(labels map[string]string) Counter {
	return v.family.get(labels, func() *counter {
		return &counter{descriptor: descriptor{name: v.name, help: v.help, typ: TypeCounter}}
	})
}

func (v *counterVec) Describe() string {
	var sb strings.Builder
	sb.WriteString(v.header())
	v.family.each(func(key string, _ map[string]string, c *counter) {
		sb.WriteString(fmt.Sprintf("%s%s %.6f\n", v.name, key, c.Get()))
	})
	return sb.String()
}

type gaugeVec struct {
	descriptor
	family *family[*gauge]
}

// NewGaugeVec creates a labeled gauge family.
func NewGaugeVec(name, help string) GaugeVec {
	return &gaugeVec{
		descriptor: descriptor{name: name, help: help, typ: TypeGauge},
		family:     newFamily[*gauge](),
	}
}

func (v *gaugeVec) WithLabels(labels map[string]string) Metric { return v.With(labels) }

func (v *gaugeVec) With(labels map[string]string) Gauge {
	return v.family.get(labels, func() *gauge {
		return &gauge{descriptor: descriptor{name: v.name, help: v.help, typ: TypeGauge}}
	})
}

func (v *gaugeVec) Describe() string {
	var sb strings.Builder
	sb.WriteString(v.header())
	v.family.each(func(key string, _ map[string]string, g *gauge) {
		sb.WriteString(fmt.Sprintf("%s%s %.6f\n", v.name, key, g.Get()))
	})
	return sb.String()
}

type histogramVec struct {
	descriptor
	buckets []float64
	family  *family[*histogram]
}

// NewHistogramVec creates a labeled histogram family sharing one bucket layout.
func NewHistogramVec(name, help string, buckets []float64) HistogramVec {
	return &histogramVec{
		descriptor: descriptor{name: name, help: help, typ: TypeHistogram},
		buckets:    buckets,
		family:     newFamily[*histogram](),
	}
}

func (v *histogramVec) WithLabels(labels map[string]string) Metric { return v.With(labels) }

func (v *histogramVec) With(labels map[string]string) Histogram {
	return v.family.get(labels, func() *histogram {
		return NewHistogram(v.name, v.help, v.buckets).(*histogram)
	})
}

func (v *histogramVec) Describe() string {
	var sb strings.Builder
	sb.WriteString(v.header())
	v.family.each(func(_ string, labels map[string]string, h *histogram) {
		sb.WriteString(h.lines(v.name, labels))
	})
	return sb.String()
}
