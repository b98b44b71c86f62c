// Package service provides the service layer interface definitions.
// Business logic should only exist in the service layer, not in handlers.
package service

import "context"

// Service is a marker interface for all business services.
// All business logic must be implemented in types that implement this interface.
type Service interface {
	// ServiceName returns the service name for registration.
	ServiceName() string
}

// Initializable represents a service that requires initialization.
// The server manager calls Init before serving traffic.
type Initializable interface {
	// Init initializes the service.
	Init(ctx context.Context) error
}

// Closeable represents a service that requires cleanup.
// The server manager calls Close during graceful shutdown.
type Closeable interface {
	// Close releases resources held by the service.
	Close(ctx context.Context) error
}
