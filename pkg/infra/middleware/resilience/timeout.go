package resilience

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	mwopts "github.com/kart-io/reviewer-x/pkg/options/middleware"
	"github.com/kart-io/reviewer-x/pkg/utils/errors"
	"github.com/kart-io/reviewer-x/pkg/utils/response"
)

// DefaultTimeout is used when the configured timeout is zero or negative.
const DefaultTimeout = 30 * time.Second

// Timeout returns a middleware that limits request processing time.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return TimeoutWithOptions(mwopts.TimeoutOptions{Timeout: timeout})
}

// TimeoutWithOptions returns a Timeout middleware with custom options.
func TimeoutWithOptions(opts mwopts.TimeoutOptions) gin.HandlerFunc {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	skipPaths := make(map[string]bool, len(opts.SkipPaths))
	for _, path := range opts.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		// Timeout context propagates cancellation to downstream handlers.
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		// Buffered channel so the handler goroutine never blocks on send,
		// even when the timeout path has already returned.
		done := make(chan struct{}, 1)

		go func() {
			defer func() {
				if r := recover(); r != nil {
					logPanic(r, c.Request.URL.Path)
				}
				done <- struct{}{}
			}()
			c.Next()
		}()

		select {
		case <-done:
			// Request completed before the deadline.
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
				response.Fail(c, errors.ErrRequestTimeout)
			}
			c.Abort()
		}
	}
}

// logPanic logs panic information with stack trace for debugging.
func logPanic(r interface{}, path string) {
	stack := debug.Stack()
	logger.Errorw("panic recovered in timeout middleware",
		"panic", fmt.Sprintf("%v", r),
		"path", path,
		"stack", string(stack),
	)
}
