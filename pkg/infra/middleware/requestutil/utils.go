package requestutil

import (
	"net"
	"net/http"
	"strings"

	"github.com/kart-io/reviewer-x/pkg/infra/middleware/common"
)

// Header names, re-exported from common.
const (
	HeaderXRequestID = common.HeaderXRequestID
	HeaderTraceID    = common.HeaderTraceID
)

// RequestIDKey is re-exported from common so callers can use a single
// context key type regardless of which package they import.
type RequestIDKey = common.RequestIDKey

// GenerateRequestID is re-exported from common.
var GenerateRequestID = common.GenerateRequestID

// GetRequestID is re-exported from common.
var GetRequestID = common.GetRequestID

// GetClientIP returns the client IP address from the request.
// It checks X-Forwarded-For, X-Real-IP, and RemoteAddr.
func GetClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
