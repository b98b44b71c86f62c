package metrics

import (
	"sort"
	"strings"
	"sync"
)

// Registry holds named metrics and renders them for scraping. The zero value
// is not usable; call NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// DefaultRegistry backs the package-level Register and Export helpers.
var DefaultRegistry = NewRegistry()

// Register adds m to the registry, replacing any metric with the same name.
func (r *Registry) Register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[m.Name()] = m
}

// Register adds m to the default registry.
func Register(m Metric) {
	DefaultRegistry.Register(m)
}

// Export renders every registered metric in Prometheus text format,
// sorted by metric name.
func (r *Registry) Export() string {
	r.mu.RLock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	ordered := make([]Metric, 0, len(names))
	for _, name := range names {
		ordered = append(ordered, r.metrics[name])
	}
	r.mu.RUnlock()

	var sb strings.Builder
	for _, m := range ordered {
		sb.WriteString(m.Describe())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Export renders the default registry.
func Export() string {
	return DefaultRegistry.Export()
}

// Unregister removes the metric with the given name, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.metrics, name)
}

// Reset drops every registered metric.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = make(map[string]Metric)
}
