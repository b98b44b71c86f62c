package logger

// EnhancedLoggerConfig controls the enhanced HTTP access logging middleware.
// It decides which requests get logged and how much of the payload is
// captured alongside the structured access entry.
type EnhancedLoggerConfig struct {
	// SkipHealthChecks suppresses access logs for health and readiness probes.
	SkipHealthChecks bool

	// SkipPaths lists additional request paths that produce no access log.
	SkipPaths []string

	// LogRequestBody captures the request body up to MaxBodyLogSize bytes.
	LogRequestBody bool

	// LogResponseBody captures the response body up to MaxBodyLogSize bytes.
	LogResponseBody bool

	// CaptureHeaders lists request headers to include in the log entry.
	CaptureHeaders []string

	// SensitiveHeaders lists headers whose values are redacted when captured.
	SensitiveHeaders []string

	// MaxBodyLogSize caps captured body size in bytes.
	MaxBodyLogSize int
}

// NewEnhancedLoggerConfig returns a config with conservative defaults:
// probes are skipped, bodies are not captured, and common credential
// headers are redacted.
func NewEnhancedLoggerConfig() *EnhancedLoggerConfig {
	return &EnhancedLoggerConfig{
		SkipHealthChecks: true,
		SkipPaths:        []string{},
		LogRequestBody:   false,
		LogResponseBody:  false,
		CaptureHeaders:   []string{},
		SensitiveHeaders: []string{"Authorization", "Cookie", "X-Api-Key"},
		MaxBodyLogSize:   4096,
	}
}
