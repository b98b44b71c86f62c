package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

func tripBreaker(cb *CircuitBreaker, failures int) {
	for i := 0; i < failures; i++ {
		_ = cb.Execute(func() error { return errUpstream })
	}
}

func TestCircuitBreakerStateMachine(t *testing.T) {
	newConfig := func() *CircuitBreakerConfig {
		return &CircuitBreakerConfig{
			MaxFailures:      2,
			Timeout:          100 * time.Millisecond,
			HalfOpenMaxCalls: 1,
		}
	}

	t.Run("成功调用保持关闭", func(t *testing.T) {
		cb := NewCircuitBreaker(newConfig())
		require.NoError(t, cb.Execute(func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("连续失败达到阈值后打开", func(t *testing.T) {
		cb := NewCircuitBreaker(newConfig())
		tripBreaker(cb, 2)
		assert.Equal(t, StateOpen, cb.State())

		err := cb.Execute(func() error { return nil })
		assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	})

	t.Run("超时后半开探测成功转关闭", func(t *testing.T) {
		cb := NewCircuitBreaker(newConfig())
		tripBreaker(cb, 2)

		time.Sleep(150 * time.Millisecond)

		require.NoError(t, cb.Execute(func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("半开探测失败回到打开", func(t *testing.T) {
		cb := NewCircuitBreaker(newConfig())
		tripBreaker(cb, 2)

		time.Sleep(150 * time.Millisecond)

		err := cb.Execute(func() error { return errUpstream })
		assert.Error(t, err)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("Reset 强制回到关闭", func(t *testing.T) {
		cb := NewCircuitBreaker(newConfig())
		tripBreaker(cb, 2)
		assert.Equal(t, StateOpen, cb.State())

		cb.Reset()
		assert.Equal(t, StateClosed, cb.State())
		require.NoError(t, cb.Execute(func() error { return nil }))
	})
}

func TestCircuitBreakerStats(t *testing.T) {
	cb := NewCircuitBreaker(nil)

	stats := cb.Stats()
	assert.Equal(t, "closed", stats["state"])
	assert.Equal(t, 0, stats["failures"])

	_ = cb.Execute(func() error { return errUpstream })

	stats = cb.Stats()
	assert.Equal(t, 1, stats["failures"])
}

func TestCircuitBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(99).String())
}

func TestRetryWithBackoff(t *testing.T) {
	fastConfig := func() *RetryConfig {
		return &RetryConfig{
			MaxAttempts:     3,
			InitialDelay:    10 * time.Millisecond,
			MaxDelay:        100 * time.Millisecond,
			Multiplier:      2.0,
			RetryableErrors: func(error) bool { return true },
		}
	}

	t.Run("首次成功不重试", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastConfig(), func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("重试后成功", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastConfig(), func() error {
			calls++
			if calls < 3 {
				return errUpstream
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("耗尽尝试次数后返回错误", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastConfig(), func() error {
			calls++
			return errUpstream
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "max retry attempts")
		assert.ErrorIs(t, err, errUpstream)
	})

	t.Run("不可重试错误立即放弃", func(t *testing.T) {
		config := fastConfig()
		config.RetryableErrors = func(err error) bool {
			return err.Error() != "bad request"
		}

		calls := 0
		fatal := errors.New("bad request")
		err := RetryWithBackoff(context.Background(), config, func() error {
			calls++
			return fatal
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, fatal, err)
	})

	t.Run("上下文取消中断退避等待", func(t *testing.T) {
		config := fastConfig()
		config.MaxAttempts = 5
		config.InitialDelay = 100 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		calls := 0
		err := RetryWithBackoff(ctx, config, func() error {
			calls++
			return errUpstream
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.LessOrEqual(t, calls, 2)
	})

	t.Run("nil 配置使用默认策略", func(t *testing.T) {
		err := RetryWithBackoff(context.Background(), nil, func() error { return nil })
		require.NoError(t, err)
	})
}

func TestRetryWithBackoffExponentialDelay(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        time.Second,
		Multiplier:      2.0,
		RetryableErrors: func(error) bool { return true },
	}

	start := time.Now()
	_ = RetryWithBackoff(context.Background(), config, func() error { return errUpstream })
	elapsed := time.Since(start)

	// 两次等待约 100ms + 200ms，留出调度误差
	assert.Greater(t, elapsed, 250*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRetryWithCircuitBreaker(t *testing.T) {
	retryConfig := &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		RetryableErrors: func(err error) bool {
			return !errors.Is(err, ErrCircuitBreakerOpen)
		},
	}
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      2,
		Timeout:          100 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})

	// 重试期间失败计数累积，打开熔断器
	err := RetryWithCircuitBreaker(context.Background(), retryConfig, cb, func() error {
		return errUpstream
	})
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())

	// 打开后调用不再触达下游
	calls := 0
	err = RetryWithCircuitBreaker(context.Background(), retryConfig, cb, func() error {
		calls++
		return errUpstream
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.Zero(t, calls)
}

func TestDefaultConfigs(t *testing.T) {
	retryConfig := DefaultRetryConfig()
	assert.Equal(t, 3, retryConfig.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, retryConfig.InitialDelay)
	assert.Equal(t, 10*time.Second, retryConfig.MaxDelay)
	assert.Equal(t, 2.0, retryConfig.Multiplier)

	cbConfig := DefaultCircuitBreakerConfig()
	assert.Equal(t, 5, cbConfig.MaxFailures)
	assert.Equal(t, 60*time.Second, cbConfig.Timeout)
	assert.Equal(t, 1, cbConfig.HalfOpenMaxCalls)
}

func BenchmarkCircuitBreakerExecute(b *testing.B) {
	cb := NewCircuitBreaker(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(func() error { return nil })
	}
}
