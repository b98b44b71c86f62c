// Package id provides unique ID generation utilities for Reviewer-X.
//
// Two strategies are supported:
//   - ULID: lexicographically sortable, used for review and request IDs so
//     that history records order by creation time
//   - UUID: standard v4 (random), for identifiers with no ordering needs
//
// Usage:
//
//	rid := id.NewULID() // e.g., "01ARZ3NDEKTSV4RRFFQ69G5FAV"
//	uid := id.NewUUID() // e.g., "550e8400-e29b-41d4-a716-446655440000"
package id

import (
	"sync"
)

// Generator defines the interface for ID generators.
type Generator interface {
	// Generate creates a new unique ID.
	Generate() string

	// GenerateN creates n unique IDs.
	GenerateN(n int) []string
}

// Type represents the type of ID generator.
type Type string

const (
	// TypeUUID represents UUID v4 generator.
	TypeUUID Type = "uuid"

	// TypeULID represents ULID generator.
	TypeULID Type = "ulid"
)

var (
	defaultUUID Generator
	defaultULID Generator
	initOnce    sync.Once
)

// initDefaults initializes default generators.
func initDefaults() {
	initOnce.Do(func() {
		defaultUUID = NewUUIDGenerator()
		defaultULID = NewULIDGenerator()
	})
}

// NewUUID generates a new UUID v4 string.
func NewUUID() string {
	initDefaults()
	return defaultUUID.Generate()
}

// NewULID generates a new ULID string.
func NewULID() string {
	initDefaults()
	return defaultULID.Generate()
}

// New generates a new ID using the specified generator type.
// Unknown types fall back to ULID, the service default.
func New(t Type) string {
	switch t {
	case TypeUUID:
		return NewUUID()
	case TypeULID:
		return NewULID()
	default:
		return NewULID()
	}
}
