// Package storage defines the common surface that every storage backend in
// reviewer-x exposes: a Client interface, a Manager that tracks registered
// clients, and error types with stable codes.
//
// # Clients
//
// A backend package (mongodb, milvus, ...) wraps its driver in a type that
// implements Client:
//
//	type Client interface {
//	    Name() string
//	    Ping(ctx context.Context) error
//	    Close() error
//	    Health() HealthChecker
//	}
//
// Name identifies the backend kind, Ping is a lightweight connectivity probe,
// and Health returns a self-contained checker the Manager can call without a
// caller-supplied context.
//
// # Manager
//
// Applications with several backends register them under instance names and
// drive health checks and shutdown through one object:
//
//	mgr := storage.NewManager()
//	mgr.MustRegister("mongo-history", mongoClient)
//
//	statuses := mgr.HealthCheckAll(ctx)
//	for name, status := range statuses {
//	    if !status.Healthy {
//	        log.Printf("%s: %v (latency %v)", name, status.Error, status.Latency)
//	    }
//	}
//
//	defer mgr.CloseAll()
//
// The Manager is safe for concurrent use.
//
// # Errors
//
// Failures carry a StorageError with a stable code. Sentinels compare by code,
// so a WithMessage variant still matches its sentinel:
//
//	if err := mgr.Unregister("missing"); errors.Is(err, storage.ErrClientNotFound) {
//	    // name was never registered
//	}
//
// Backend option types should return ErrInvalidConfig variants from their
// Validate methods:
//
//	if o.Addr == "" {
//	    return storage.ErrInvalidConfig.WithMessage("address is required")
//	}
package storage
