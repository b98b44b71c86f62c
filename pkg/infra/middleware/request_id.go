package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/reviewer-x/pkg/infra/middleware/common"
	mwopts "github.com/kart-io/reviewer-x/pkg/options/middleware"
	"github.com/kart-io/reviewer-x/pkg/utils/id"
)

// HeaderXRequestID is re-exported from common for backward compatibility.
const HeaderXRequestID = common.HeaderXRequestID

// RequestID returns a request ID middleware with default options.
func RequestID() gin.HandlerFunc {
	return RequestIDWithOptions(*mwopts.NewRequestIDOptions(), nil)
}

// RequestIDWithOptions returns a gin RequestID middleware driven by config options.
// generator 为 nil 时按 opts.GeneratorType 选择生成器：
// "ulid" 使用 ULID（26 字符，时间可排序），其余值使用随机十六进制（32 字符）。
func RequestIDWithOptions(opts mwopts.RequestIDOptions, generator func() string) gin.HandlerFunc {
	header := opts.Header
	if header == "" {
		header = HeaderXRequestID
	}
	if generator == nil {
		switch opts.GeneratorType {
		case "ulid":
			generator = id.NewULID
		default:
			generator = common.GenerateRequestID
		}
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(header)
		if requestID == "" {
			requestID = generator()
		}

		c.Writer.Header().Set(header, requestID)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), requestID))
		c.Set("request_id", requestID)

		c.Next()
	}
}

// GetRequestID returns the request ID from the context.
// Returns empty string if not found.
// This is re-exported from common for backward compatibility.
var GetRequestID = common.GetRequestID
