package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	configpkg "github.com/kart-io/reviewer-x/pkg/infra/config"
	options "github.com/kart-io/reviewer-x/pkg/options/middleware"
)

// ReloadableMiddleware wraps middleware options with hot reload capability.
// It maintains thread-safe access to middleware configuration and can apply
// configuration changes at runtime without service restart.
//
// Hot reload replaces the config instance of each already-enabled middleware
// with the new one. Enabling or disabling a middleware requires rebuilding
// the middleware chain, so newly appearing or disappearing entries in the
// incoming configuration are ignored and logged.
type ReloadableMiddleware struct {
	opts *Options
	mu   sync.RWMutex
	// Callbacks for components that need notification of config changes
	onTimeoutChange func(time.Duration, []string) error
	onCORSChange    func(*CORSOptions) error
}

// NewReloadableMiddleware creates a new reloadable middleware manager.
func NewReloadableMiddleware(opts *Options) *ReloadableMiddleware {
	return &ReloadableMiddleware{
		opts: opts,
	}
}

// OnConfigChange implements the config.Reloadable interface.
// It validates and applies new middleware configuration atomically.
func (rm *ReloadableMiddleware) OnConfigChange(newConfig interface{}) error {
	newOpts, ok := newConfig.(*Options)
	if !ok {
		return fmt.Errorf("invalid config type: expected *middleware.Options, got %T", newConfig)
	}

	// Validate new configuration
	if errs := newOpts.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid middleware configuration: %v", errs)
	}

	// Acquire write lock
	rm.mu.Lock()
	defer rm.mu.Unlock()

	// Track what changed for logging
	changes := []string{}

	for _, name := range newOpts.ListConfigs() {
		newCfg := newOpts.GetConfig(name)
		if newCfg == nil {
			continue
		}

		// 启用/禁用需要重建中间件链，热更新只覆盖已启用的配置
		if !rm.opts.IsEnabled(name) {
			logger.Warnw("middleware not enabled, skipping hot reload",
				"middleware", name,
			)
			continue
		}

		switch name {
		case MiddlewareTimeout:
			oldCfg, _ := options.GetConfigTyped[*TimeoutOptions](rm.opts, name)
			cfg := newCfg.(*TimeoutOptions)
			if oldCfg != nil && oldCfg.Timeout != cfg.Timeout {
				changes = append(changes, fmt.Sprintf("timeout: %v -> %v", oldCfg.Timeout, cfg.Timeout))
				if rm.onTimeoutChange != nil {
					if err := rm.onTimeoutChange(cfg.Timeout, cfg.SkipPaths); err != nil {
						return fmt.Errorf("failed to apply timeout change: %w", err)
					}
				}
			}
			rm.opts.SetConfig(name, cfg)

		case MiddlewareCORS:
			oldCfg, _ := options.GetConfigTyped[*CORSOptions](rm.opts, name)
			cfg := newCfg.(*CORSOptions)
			if oldCfg != nil && corsChanged(oldCfg, cfg) {
				changes = append(changes, "cors")
				if rm.onCORSChange != nil {
					if err := rm.onCORSChange(cfg); err != nil {
						return fmt.Errorf("failed to apply CORS change: %w", err)
					}
				}
			}
			rm.opts.SetConfig(name, cfg)

		default:
			changes = append(changes, name)
			rm.opts.SetConfig(name, newCfg)
		}
	}

	if len(newOpts.Middleware) > 0 {
		rm.opts.Middleware = append([]string(nil), newOpts.Middleware...)
		changes = append(changes, "middleware-order")
	}

	if len(changes) > 0 {
		logger.Infof("Middleware configuration reloaded: %v", changes)
	} else {
		logger.Debug("Middleware configuration unchanged")
	}

	return nil
}

// GetOptions returns a snapshot of the current middleware options.
// Config instances are shared; reloads replace them wholesale, so a
// snapshot always observes a consistent config per middleware.
func (rm *ReloadableMiddleware) GetOptions() *Options {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	opts := &Options{
		Middleware: append([]string(nil), rm.opts.Middleware...),
	}
	for _, name := range rm.opts.ListConfigs() {
		opts.SetConfig(name, rm.opts.GetConfig(name))
	}
	return opts
}

// SetTimeoutChangeCallback registers a callback to be invoked when timeout configuration changes.
// This allows the actual middleware implementation to update its behavior.
func (rm *ReloadableMiddleware) SetTimeoutChangeCallback(fn func(time.Duration, []string) error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.onTimeoutChange = fn
}

// SetCORSChangeCallback registers a callback to be invoked when CORS configuration changes.
// This allows the actual middleware implementation to update its behavior.
func (rm *ReloadableMiddleware) SetCORSChangeCallback(fn func(*CORSOptions) error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.onCORSChange = fn
}

// RegisterWithWatcher registers this reloadable middleware with a configuration watcher.
// The handlerID should be unique across all registered handlers.
func (rm *ReloadableMiddleware) RegisterWithWatcher(watcher *configpkg.Watcher, handlerID, configKey string) {
	target := NewOptions()
	subscriber := configpkg.NewReloadableSubscriber(rm, configKey, target)
	watcher.Subscribe(handlerID, subscriber.Handler())
}

// corsChanged reports whether any hot-reloadable CORS field differs.
func corsChanged(a, b *CORSOptions) bool {
	return !stringSlicesEqual(a.AllowOrigins, b.AllowOrigins) ||
		!stringSlicesEqual(a.AllowMethods, b.AllowMethods) ||
		!stringSlicesEqual(a.AllowHeaders, b.AllowHeaders) ||
		a.AllowCredentials != b.AllowCredentials ||
		a.MaxAge != b.MaxAge
}

// stringSlicesEqual compares two string slices for equality.
func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
