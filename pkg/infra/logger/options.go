package logger

import (
	logopts "github.com/kart-io/reviewer-x/pkg/options/logger"
)

// Options is the logger configuration shared with the options layer.
// The alias lets the reload and init helpers in this package operate on
// the same type the flag-binding layer produces.
type Options = logopts.Options

// NewOptions returns logger options with defaults applied.
func NewOptions() *Options {
	return logopts.NewOptions()
}
