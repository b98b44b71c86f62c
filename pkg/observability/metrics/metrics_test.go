package metrics

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	c := NewCounter("jobs_total", "Completed jobs")

	assert.Equal(t, "jobs_total", c.Name())
	assert.Equal(t, TypeCounter, c.Type())

	c.Inc()
	c.Add(5)
	assert.Equal(t, float64(6), c.Get())

	// negative deltas are ignored
	c.Add(-3)
	assert.Equal(t, float64(6), c.Get())

	assert.Contains(t, c.Describe(), "# TYPE jobs_total counter")
	assert.Contains(t, c.Describe(), "jobs_total 6.000000")
}

func TestGauge(t *testing.T) {
	g := NewGauge("queue_depth", "Pending items")

	g.Set(10)
	g.Inc()
	g.Dec()
	g.Sub(5)
	g.Add(2)
	assert.Equal(t, float64(7), g.Get())
	assert.Equal(t, TypeGauge, g.Type())
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogram("latency_seconds", "Request latency", []float64{1, 5, 10})

	h.Observe(2)
	h.Observe(7)
	h.Observe(12)

	desc := h.Describe()
	assert.Contains(t, desc, `latency_seconds_bucket{le="1"} 0`)
	assert.Contains(t, desc, `latency_seconds_bucket{le="5"} 1`)
	assert.Contains(t, desc, `latency_seconds_bucket{le="10"} 2`)
	assert.Contains(t, desc, `latency_seconds_bucket{le="+Inf"} 3`)
	assert.Contains(t, desc, "latency_seconds_sum 21.000000")
	assert.Contains(t, desc, "latency_seconds_count 3")
}

func TestHistogramDefaultBuckets(t *testing.T) {
	h := NewHistogram("d", "default buckets", nil)
	h.Observe(0.3)
	assert.Contains(t, h.Describe(), `d_bucket{le="0.5"} 1`)
}

func TestCounterVec(t *testing.T) {
	cv := NewCounterVec("http_requests", "HTTP requests")

	cv.With(map[string]string{"method": "GET"}).Inc()
	cv.With(map[string]string{"method": "POST"}).Add(2)
	cv.With(map[string]string{"method": "GET"}).Inc()

	out := cv.Describe()
	assert.Contains(t, out, `http_requests{method="GET"} 2`)
	assert.Contains(t, out, `http_requests{method="POST"} 2`)
}

func TestHistogramVecMergesLabels(t *testing.T) {
	hv := NewHistogramVec("req_latency", "latency by path", []float64{1})

	hv.With(map[string]string{"path": "/v1/review"}).Observe(0.5)

	out := hv.Describe()
	assert.Contains(t, out, `req_latency_bucket{le="1",path="/v1/review"} 1`)
	assert.Contains(t, out, `req_latency_sum{path="/v1/review"}`)
	assert.Contains(t, out, `req_latency_count{path="/v1/review"} 1`)
}

func TestRegistryExport(t *testing.T) {
	r := NewRegistry()
	c := NewCounter("exported_total", "help text")
	r.Register(c)
	c.Inc()

	out := r.Export()
	assert.Contains(t, out, "# HELP exported_total help text")
	assert.Contains(t, out, "exported_total 1")

	r.Unregister("exported_total")
	assert.NotContains(t, r.Export(), "exported_total")

	r.Register(c)
	r.Reset()
	assert.Empty(t, r.Export())
}

func TestVecConcurrentAccess(t *testing.T) {
	cv := NewCounterVec("concurrent_total", "concurrency smoke test")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			labels := map[string]string{"worker": fmt.Sprintf("%d", n%2)}
			for j := 0; j < 100; j++ {
				cv.With(labels).Inc()
			}
		}(i)
	}
	wg.Wait()

	total := cv.With(map[string]string{"worker": "0"}).Get() +
		cv.With(map[string]string{"worker": "1"}).Get()
	assert.Equal(t, float64(800), total)
}
