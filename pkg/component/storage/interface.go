package storage

import (
	"context"
	"time"
)

// Client is the common interface implemented by all storage backends
// (Redis, MongoDB, Milvus, etc.). It covers identification, liveness
// probing and graceful shutdown so that heterogeneous clients can be
// managed uniformly by the Manager.
type Client interface {
	// Name returns the backend type name (e.g., "mongodb", "redis").
	Name() string

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error

	// Health returns a HealthChecker bound to this client.
	Health() HealthChecker
}

// Factory creates storage clients from pre-validated configuration.
// Implementations typically capture an options struct and build a
// connected Client on each Create call.
type Factory interface {
	Create(ctx context.Context) (Client, error)
}

// HealthChecker is a self-contained liveness probe. Implementations
// should apply their own timeout so callers can invoke it blindly.
type HealthChecker func() error

// HealthStatus is the result of a health check against a single client.
type HealthStatus struct {
	Name    string        // registered client name
	Healthy bool          // whether the probe succeeded
	Latency time.Duration // probe round-trip time
	Error   error         // probe failure, nil when healthy
}
