// Package options defines the interface option structs implement to plug
// into the command line, plus shared flag-name helpers.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join builds a dotted flag-name prefix from the given segments, with a
// trailing "." when non-empty, so callers can write Join(prefixes...)+"host"
// and get either "host" or "mongodb.host".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions is implemented by every options struct wired into the flag set.
type IOptions interface {
	// Validate checks the options and may normalize them in place.
	Validate() []error

	// AddFlags registers the options' flags, namespaced by prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
