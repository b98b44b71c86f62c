package observability

import (
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/reviewer-x/pkg/infra/middleware/common"
	"github.com/kart-io/reviewer-x/pkg/infra/tracing"
)

const (
	// TracerName is the name of the tracer for HTTP middleware.
	TracerName = "github.com/kart-io/reviewer-x/pkg/infra/middleware"
)

// TracingOptions configures the tracing middleware.
type TracingOptions struct {
	// TracerName is the name to use for the tracer.
	// Default: TracerName constant
	TracerName string

	// SpanNameFormatter formats the span name from the request.
	// Default: "{http.method} {http.route}"
	SpanNameFormatter func(c *gin.Context) string

	// IncludeRequestBody enables capturing request body in span attributes.
	// WARNING: This can expose sensitive data. Use with caution.
	IncludeRequestBody bool

	// IncludeResponseBody enables capturing response body in span attributes.
	// WARNING: This can expose sensitive data. Use with caution.
	IncludeResponseBody bool

	// SkipPaths is a list of paths to skip tracing.
	SkipPaths []string

	// SkipPathPrefixes is a list of path prefixes to skip tracing.
	SkipPathPrefixes []string

	// AttributeExtractor extracts custom attributes from the request.
	AttributeExtractor func(c *gin.Context) []attribute.KeyValue
}

// TracingOption is a functional option for TracingOptions.
type TracingOption func(*TracingOptions)

// NewTracingOptions creates default tracing options.
func NewTracingOptions() *TracingOptions {
	return &TracingOptions{
		TracerName:          TracerName,
		SpanNameFormatter:   defaultSpanNameFormatter,
		IncludeRequestBody:  false,
		IncludeResponseBody: false,
		SkipPaths:           []string{},
		SkipPathPrefixes:    []string{},
	}
}

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(o *TracingOptions) {
		o.TracerName = name
	}
}

// WithSpanNameFormatter sets the span name formatter.
func WithSpanNameFormatter(formatter func(c *gin.Context) string) TracingOption {
	return func(o *TracingOptions) {
		o.SpanNameFormatter = formatter
	}
}

// WithRequestBodyCapture enables request body capture.
func WithRequestBodyCapture(enabled bool) TracingOption {
	return func(o *TracingOptions) {
		o.IncludeRequestBody = enabled
	}
}

// WithResponseBodyCapture enables response body capture.
func WithResponseBodyCapture(enabled bool) TracingOption {
	return func(o *TracingOptions) {
		o.IncludeResponseBody = enabled
	}
}

// WithTracingSkipPaths sets paths to skip tracing.
func WithTracingSkipPaths(paths []string) TracingOption {
	return func(o *TracingOptions) {
		o.SkipPaths = paths
	}
}

// WithTracingSkipPathPrefixes sets path prefixes to skip tracing.
func WithTracingSkipPathPrefixes(prefixes []string) TracingOption {
	return func(o *TracingOptions) {
		o.SkipPathPrefixes = prefixes
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *gin.Context) []attribute.KeyValue) TracingOption {
	return func(o *TracingOptions) {
		o.AttributeExtractor = extractor
	}
}

// Tracing creates a tracing middleware.
//
// This middleware:
// - Extracts trace context from incoming requests (W3C Trace Context)
// - Creates a new span for each request
// - Adds standard HTTP attributes (method, URL, status code, etc.)
// - Propagates trace context through the request lifecycle
// - Records errors and exceptions in spans
//
// Usage:
//
//	engine.Use(middleware.Tracing())
//
// With options:
//
//	engine.Use(middleware.Tracing(
//	    middleware.WithTracingSkipPaths([]string{"/health", "/metrics"}),
//	    middleware.WithRequestBodyCapture(false),
//	))
func Tracing(opts ...TracingOption) gin.HandlerFunc {
	options := NewTracingOptions()
	for _, opt := range opts {
		opt(options)
	}

	// Create skip path map for fast lookup
	skipPathMap := make(map[string]struct{})
	for _, path := range options.SkipPaths {
		skipPathMap[path] = struct{}{}
	}

	propagator := tracing.GetGlobalTextMapPropagator()

	return func(c *gin.Context) {
		req := c.Request
		path := req.URL.Path

		// Check if path should be skipped
		if _, skip := skipPathMap[path]; skip {
			c.Next()
			return
		}

		// Check if path prefix should be skipped
		for _, prefix := range options.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// Extract trace context from request headers
		requestCtx := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		// Start span
		spanName := options.SpanNameFormatter(c)
		spanCtx, span := tracing.StartSpanWithKind(
			requestCtx,
			options.TracerName,
			spanName,
			trace.SpanKindServer,
		)
		defer span.End()

		// Update request context
		c.Request = req.WithContext(spanCtx)

		// Add standard HTTP attributes
		attrs := []attribute.KeyValue{
			semconv.HTTPMethod(req.Method),
			semconv.HTTPURL(req.URL.String()),
			semconv.HTTPTarget(req.URL.Path),
			semconv.HTTPScheme(req.URL.Scheme),
			semconv.ServerAddress(req.Host),
		}

		if userAgent := req.UserAgent(); userAgent != "" {
			attrs = append(attrs, semconv.UserAgentOriginal(userAgent))
		}

		if clientIP := req.RemoteAddr; clientIP != "" {
			attrs = append(attrs, attribute.String(tracing.HTTPClientIP, clientIP))
		}

		// Add request ID if present
		if requestID := c.GetHeader(common.HeaderXRequestID); requestID != "" {
			attrs = append(attrs, attribute.String(tracing.HTTPRequestID, requestID))
		}

		// Add custom attributes if extractor is provided
		if options.AttributeExtractor != nil {
			customAttrs := options.AttributeExtractor(c)
			attrs = append(attrs, customAttrs...)
		}

		span.SetAttributes(attrs...)

		// Call the next handler
		c.Next()

		// Add response attributes
		statusCode := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(statusCode))

		// Set span status based on HTTP status code
		if statusCode >= 400 {
			span.SetStatus(codes.Error, http.StatusText(statusCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}

		// Record error if present
		if statusCode >= 500 {
			span.RecordError(fmt.Errorf("HTTP %d: %s", statusCode, http.StatusText(statusCode)))
		}
	}
}

// tracingResponseWriter wraps http.ResponseWriter to capture status code
// when tracing plain net/http handlers outside of gin.
type tracingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *tracingResponseWriter) WriteHeader(statusCode int) {
	if !w.written {
		w.statusCode = statusCode
		w.written = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *tracingResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// defaultSpanNameFormatter creates a span name from the HTTP method and route.
func defaultSpanNameFormatter(c *gin.Context) string {
	// Prefer the route pattern so span names have low cardinality
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return fmt.Sprintf("%s %s", c.Request.Method, route)
}

// ExtractTraceID extracts the trace ID from the request context.
// This can be used to add trace ID to logs or responses.
func ExtractTraceID(c *gin.Context) string {
	return tracing.TraceIDFromContext(c.Request.Context())
}

// ExtractSpanID extracts the span ID from the request context.
func ExtractSpanID(c *gin.Context) string {
	return tracing.SpanIDFromContext(c.Request.Context())
}
