package mongodb

import (
	"context"

	"github.com/kart-io/reviewer-x/pkg/component/storage"
)

// Factory creates MongoDB clients from a captured configuration.
// It implements the storage.Factory interface so MongoDB clients can be
// produced lazily and registered with a storage.Manager.
//
// Example usage:
//
//	factory := mongodb.NewFactory(opts)
//	client, err := factory.Create(ctx)
type Factory struct {
	opts *Options
}

// NewFactory creates a factory bound to the given options.
// The options are not copied; use Clone to derive an independent factory.
func NewFactory(opts *Options) *Factory {
	return &Factory{opts: opts}
}

// Create connects to MongoDB using the factory's options.
func (f *Factory) Create(ctx context.Context) (storage.Client, error) {
	return NewWithContext(ctx, f.opts)
}

// Options returns the factory's configuration.
func (f *Factory) Options() *Options {
	return f.opts
}

// Clone returns a new factory with a deep copy of the options, so the
// clone can be mutated without affecting the original.
func (f *Factory) Clone() *Factory {
	optsCopy := *f.opts
	return &Factory{opts: &optsCopy}
}

var _ storage.Factory = (*Factory)(nil)
