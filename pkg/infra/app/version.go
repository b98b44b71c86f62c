package app

import (
	"github.com/kart-io/version"
)

// GetVersion returns the git version string embedded at build time.
// The server attaches it to every log line as service.version.
func GetVersion() string {
	return version.Get().GitVersion
}
