package resilience

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	mwopts "github.com/kart-io/reviewer-x/pkg/options/middleware"
	"github.com/kart-io/reviewer-x/pkg/utils/errors"
	"github.com/kart-io/reviewer-x/pkg/utils/response"
	"github.com/redis/go-redis/v9"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow checks if a request with the given key is allowed.
	// Returns true if allowed, false if rate limit exceeded.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset resets the rate limit counter for the given key.
	Reset(ctx context.Context, key string) error
}

// RateLimit returns a rate limiting middleware with default options.
func RateLimit() gin.HandlerFunc {
	return RateLimitWithOptions(*mwopts.NewRateLimitOptions(), nil)
}

// RateLimitWithOptions returns a rate limiting middleware with custom options.
// When limiter is nil, one is created from the options: a Redis-backed limiter
// if UseRedis is set, otherwise an in-memory sliding window limiter.
func RateLimitWithOptions(opts mwopts.RateLimitOptions, limiter RateLimiter) gin.HandlerFunc {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Window <= 0 {
		opts.Window = 60
	}

	if limiter == nil {
		limiter = newLimiterFromOptions(opts)
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

		key := extractClientIP(c, opts)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// 限流器故障时放行请求，避免把后端故障放大为全站不可用
			logger.Errorw("rate limiter error",
				"error", err.Error(),
				"key", key,
			)
			c.Next()
			return
		}

		if !allowed {
			response.Fail(c, errors.ErrRateLimitExceeded)
			c.Abort()
			return
		}

		c.Next()
	}
}

// newLimiterFromOptions creates a limiter backend from the options.
func newLimiterFromOptions(opts mwopts.RateLimitOptions) RateLimiter {
	if opts.UseRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		return NewRedisRateLimiter(client, opts.Limit, opts.GetWindow())
	}
	return NewMemoryRateLimiter(opts.Limit, opts.GetWindow())
}

// ============================================================================
// Key Extraction
// ============================================================================

// extractClientIP extracts the real client IP from the request.
// It only trusts proxy headers (X-Forwarded-For, X-Real-IP) when:
// 1. TrustProxyHeaders is enabled in the options
// 2. The request comes from a trusted proxy IP/CIDR
// This prevents IP spoofing attacks via forged headers.
func extractClientIP(c *gin.Context, opts mwopts.RateLimitOptions) string {
	req := c.Request
	remoteIP := getRemoteIP(req)

	// Only trust proxy headers if configured and request is from trusted proxy
	if opts.TrustProxyHeaders && isTrustedProxy(remoteIP, opts.TrustedProxies) {
		// Check X-Forwarded-For header (most common)
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
			// Use the first IP which should be the original client
			ips := strings.Split(xff, ",")
			if len(ips) > 0 {
				ip := strings.TrimSpace(ips[0])
				if isValidIP(ip) {
					return ip
				}
			}
		}

		// Check X-Real-IP header (alternative to X-Forwarded-For)
		if xri := req.Header.Get("X-Real-IP"); xri != "" {
			xri = strings.TrimSpace(xri)
			if isValidIP(xri) {
				return xri
			}
		}
	}

	// Fall back to remote address (directly connected IP)
	// This is always safe as it cannot be spoofed
	return remoteIP
}

// getRemoteIP extracts the IP address from http.Request.RemoteAddr.
// RemoteAddr is in the form "IP:port", so we need to split it.
func getRemoteIP(req *http.Request) string {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		// If split fails, return the whole RemoteAddr
		return req.RemoteAddr
	}
	return ip
}

// isTrustedProxy checks if the given IP is in the list of trusted proxies.
// Supports both individual IPs and CIDR ranges.
func isTrustedProxy(ip string, trustedCIDRs []string) bool {
	// If no trusted proxies configured, don't trust any proxy
	if len(trustedCIDRs) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		// Invalid IP, don't trust it
		return false
	}

	for _, cidr := range trustedCIDRs {
		// Support both single IP addresses and CIDR notation
		if !strings.Contains(cidr, "/") {
			if cidr == ip {
				return true
			}
			continue
		}

		// CIDR range - parse and check if IP is in range
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Invalid CIDR, skip it
			logger.Warnw("invalid CIDR in trusted proxies",
				"cidr", cidr,
				"error", err.Error(),
			)
			continue
		}

		if network.Contains(parsedIP) {
			return true
		}
	}

	return false
}

// isValidIP validates that the given string is a valid IP address.
// This prevents injection of invalid data into rate limiting keys.
func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// ============================================================================
// Memory Rate Limiter Implementation
// ============================================================================

// MemoryRateLimiter implements rate limiting using in-memory storage.
// It uses a sliding window algorithm with bucketing for accurate rate limiting.
type MemoryRateLimiter struct {
	limit  int
	window time.Duration
	store  *sync.Map
	// cleanup goroutine cancellation
	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// rateLimitEntry stores rate limit data for a single key.
type rateLimitEntry struct {
	requests  []time.Time
	mu        sync.Mutex
	lastCheck time.Time
}

// NewMemoryRateLimiter creates a new memory-based rate limiter.
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	limiter := &MemoryRateLimiter{
		limit:       limit,
		window:      window,
		store:       &sync.Map{},
		stopCleanup: make(chan struct{}),
	}

	// Start cleanup goroutine
	go limiter.cleanupExpiredEntries()

	return limiter
}

// Allow checks if a request with the given key is allowed.
func (m *MemoryRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	// Get or create entry
	value, _ := m.store.LoadOrStore(key, &rateLimitEntry{
		requests:  make([]time.Time, 0, m.limit),
		lastCheck: now,
	})

	entry := value.(*rateLimitEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Update last check time
	entry.lastCheck = now

	// Remove expired requests (outside the window)
	cutoff := now.Add(-m.window)
	entry.requests = filterExpiredRequests(entry.requests, cutoff)

	// Check if limit is exceeded
	if len(entry.requests) >= m.limit {
		return false, nil
	}

	// Add current request
	entry.requests = append(entry.requests, now)

	return true, nil
}

// Reset resets the rate limit counter for the given key.
func (m *MemoryRateLimiter) Reset(ctx context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

// Stop stops the cleanup goroutine.
func (m *MemoryRateLimiter) Stop() {
	m.cleanupOnce.Do(func() {
		close(m.stopCleanup)
	})
}

// cleanupExpiredEntries periodically removes expired entries from memory.
func (m *MemoryRateLimiter) cleanupExpiredEntries() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.performCleanup()
		case <-m.stopCleanup:
			return
		}
	}
}

// performCleanup removes entries that haven't been accessed recently.
func (m *MemoryRateLimiter) performCleanup() {
	now := time.Now()
	threshold := now.Add(-m.window * 2) // Keep entries for 2x window duration

	m.store.Range(func(key, value interface{}) bool {
		entry := value.(*rateLimitEntry)
		entry.mu.Lock()
		lastCheck := entry.lastCheck
		entry.mu.Unlock()

		if lastCheck.Before(threshold) {
			m.store.Delete(key)
		}
		return true
	})
}

// filterExpiredRequests removes timestamps that are outside the time window.
func filterExpiredRequests(requests []time.Time, cutoff time.Time) []time.Time {
	// Find the first non-expired request
	validIdx := 0
	for i, t := range requests {
		if t.After(cutoff) {
			validIdx = i
			break
		}
	}

	// Return slice starting from first valid request
	if validIdx > 0 {
		return requests[validIdx:]
	}
	return requests
}

// ============================================================================
// Redis Rate Limiter Implementation
// ============================================================================

// RedisRateLimiter implements rate limiting using Redis.
// It uses Redis sorted sets for accurate sliding window rate limiting.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

// Allow checks if a request with the given key is allowed using Redis.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	redisKey := r.prefix + key

	// Use Redis sorted set for sliding window
	// Score is timestamp, member is unique request ID
	pipe := r.client.Pipeline()

	// Remove old entries outside the window
	minScore := float64(now.Add(-r.window).UnixNano())
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%.0f", minScore))

	// Count current entries
	countCmd := pipe.ZCard(ctx, redisKey)

	// Add current request
	score := float64(now.UnixNano())
	member := fmt.Sprintf("%d", now.UnixNano())
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: score, Member: member})

	// Set expiration
	pipe.Expire(ctx, redisKey, r.window*2)

	// Execute pipeline
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	// Check if limit is exceeded
	count := countCmd.Val()
	if count >= int64(r.limit) {
		return false, nil
	}

	return true, nil
}

// Reset resets the rate limit counter for the given key in Redis.
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	redisKey := r.prefix + key
	return r.client.Del(ctx, redisKey).Err()
}
