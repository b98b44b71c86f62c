// Package resilience 提供 LLM 调用的韧性原语：指数退避重试与熔断器。
// LLM 上游的限流和偶发超时很常见，所有供应商调用都应经过这一层。
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
)

// ErrCircuitBreakerOpen 表示熔断器处于打开状态，调用被直接拒绝。
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// RetryConfig 重试策略。
type RetryConfig struct {
	// MaxAttempts 总尝试次数，含首次调用。
	MaxAttempts int
	// InitialDelay 首次重试前的等待时间。
	InitialDelay time.Duration
	// MaxDelay 退避的等待时间上限。
	MaxDelay time.Duration
	// Multiplier 每次重试后等待时间的放大倍数。
	Multiplier float64
	// RetryableErrors 判断错误是否值得重试；返回 false 时立即放弃。
	RetryableErrors func(error) bool
}

// DefaultRetryConfig 返回默认重试策略：3 次尝试，500ms 起步，2 倍退避。
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RetryableErrors: func(error) bool { return true },
	}
}

// CircuitBreakerConfig 熔断策略。
type CircuitBreakerConfig struct {
	// MaxFailures 连续失败多少次后打开熔断器。
	MaxFailures int
	// Timeout 打开后经过多久允许半开探测。
	Timeout time.Duration
	// HalfOpenMaxCalls 半开窗口内放行的探测调用数。
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig 返回默认熔断策略。
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          60 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreakerState 熔断器状态机的三个状态。
type CircuitBreakerState int

const (
	// StateClosed 正常放行。
	StateClosed CircuitBreakerState = iota
	// StateOpen 拒绝所有调用。
	StateOpen
	// StateHalfOpen 限量放行探测调用。
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker 是标准三态熔断器。
// closed 下连续失败达到阈值转 open；open 超时后转 half-open；
// half-open 探测全部成功转 closed，任一失败回到 open。
type CircuitBreaker struct {
	config *CircuitBreakerConfig

	mu          sync.RWMutex
	state       CircuitBreakerState
	failures    int
	openedSince time.Time
	probes      int
	probeOK     int
}

// NewCircuitBreaker 创建熔断器；config 为 nil 时使用默认策略。
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute 经熔断器执行 fn。
// 熔断器打开时返回 ErrCircuitBreakerOpen 而不调用 fn。
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedSince) <= cb.config.Timeout {
			return ErrCircuitBreakerOpen
		}
		logger.Infow("circuit breaker transitioning to half-open")
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.probeOK = 0
		return nil
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxCalls {
			return ErrCircuitBreakerOpen
		}
		cb.probes++
		return nil
	default:
		return ErrCircuitBreakerOpen
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.probeOK++
			if cb.probeOK >= cb.probes {
				logger.Infow("circuit breaker transitioning to closed")
				cb.state = StateClosed
				cb.failures = 0
			}
		}
		return
	}

	cb.failures++
	cb.openedSince = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			logger.Warnw("circuit breaker opening",
				"failures", cb.failures,
				"max_failures", cb.config.MaxFailures,
			)
			cb.state = StateOpen
		}
	case StateHalfOpen:
		logger.Warnw("circuit breaker re-opening after half-open failure")
		cb.state = StateOpen
	}
}

// State 返回当前状态。
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Stats 返回熔断器内部计数，供诊断接口输出。
func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return map[string]interface{}{
		"state":               cb.state.String(),
		"failures":            cb.failures,
		"last_failure_time":   cb.openedSince,
		"half_open_calls":     cb.probes,
		"half_open_successes": cb.probeOK,
	}
}

// Reset 强制回到 closed 状态并清零计数。
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
	cb.probeOK = 0
}

// RetryWithBackoff 按指数退避重试 fn，尊重 ctx 取消。
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	delay := config.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !config.RetryableErrors(lastErr) {
			logger.Debugw("error is not retryable", "error", lastErr.Error())
			return lastErr
		}

		if attempt == config.MaxAttempts {
			logger.Warnw("max retry attempts reached", "attempts", attempt, "error", lastErr.Error())
			return fmt.Errorf("max retry attempts (%d) reached: %w", config.MaxAttempts, lastErr)
		}

		logger.Debugw("retrying after delay", "attempt", attempt, "delay", delay, "error", lastErr.Error())
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return lastErr
}

// RetryWithCircuitBreaker 先过熔断器再重试：每次重试都要重新经过熔断检查。
func RetryWithCircuitBreaker(
	ctx context.Context,
	retryConfig *RetryConfig,
	cb *CircuitBreaker,
	fn func() error,
) error {
	return RetryWithBackoff(ctx, retryConfig, func() error {
		return cb.Execute(fn)
	})
}
