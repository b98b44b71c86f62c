// Package config provides configuration management and hot reload capabilities.
package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
)

// ChangeHandler is a callback invoked when the configuration file changes.
// It receives the updated viper instance and returns an error if the change
// cannot be applied.
type ChangeHandler func(v *viper.Viper) error

// Watcher watches the configuration file and fans change notifications out to
// subscribers. Viper drives the underlying fsnotify watch; subscription and
// notification are thread-safe. The review service uses it to hot-reload the
// log level and middleware toggles without a restart.
type Watcher struct {
	viper    *viper.Viper
	handlers map[string]ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher around an already-initialized viper instance.
func NewWatcher(v *viper.Viper) *Watcher {
	return &Watcher{
		viper:    v,
		handlers: make(map[string]ChangeHandler),
	}
}

// Subscribe registers a change handler under id, replacing any existing
// handler with the same id.
func (w *Watcher) Subscribe(id string, handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[id] = handler
	logger.Infof("Config watcher: subscribed handler '%s'", id)
}

// Unsubscribe removes the handler registered under id. Unknown ids are a no-op.
func (w *Watcher) Unsubscribe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.handlers[id]; exists {
		delete(w.handlers, id)
		logger.Infof("Config watcher: unsubscribed handler '%s'", id)
	}
}

// Start begins watching the configuration file. Each change notifies all
// registered handlers sequentially; a failing handler is logged and does not
// stop the others. Start is idempotent.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return
	}
	w.watching = true
	w.mu.Unlock()

	w.viper.WatchConfig()
	w.viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Infof("Config file changed: %s", e.Name)
		w.notify()
	})

	logger.Info("Config watcher: started watching for configuration changes")
}

// notify snapshots the handler map and invokes each handler without holding
// the lock, so handlers may subscribe or unsubscribe reentrantly.
func (w *Watcher) notify() {
	w.mu.RLock()
	handlers := make(map[string]ChangeHandler, len(w.handlers))
	for id, handler := range w.handlers {
		handlers[id] = handler
	}
	w.mu.RUnlock()

	for id, handler := range handlers {
		if err := handler(w.viper); err != nil {
			logger.Errorf("Config watcher: handler '%s' failed: %v", id, err)
		} else {
			logger.Infof("Config watcher: handler '%s' processed change successfully", id)
		}
	}
}

// Stop marks the watcher as stopped. Viper offers no way to cancel the
// underlying watch, so this only flips the flag; it exists for API symmetry.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watching {
		return
	}
	w.watching = false
	logger.Info("Config watcher: stopped")
}

// IsWatching returns whether the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// HandlerCount returns the number of registered handlers.
// This is primarily useful for testing and diagnostics.
func (w *Watcher) HandlerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.handlers)
}

// ReloadableSubscriber adapts a Reloadable component into a ChangeHandler by
// unmarshaling a viper key into the component's config structure.
type ReloadableSubscriber struct {
	component Reloadable
	configKey string
	target    interface{}
}

// NewReloadableSubscriber creates a subscriber for a Reloadable component.
// configKey is the viper key path to unmarshal (e.g., "server", "log") and
// target a pointer to the matching configuration structure.
func NewReloadableSubscriber(component Reloadable, configKey string, target interface{}) *ReloadableSubscriber {
	return &ReloadableSubscriber{
		component: component,
		configKey: configKey,
		target:    target,
	}
}

// Handler returns the ChangeHandler to register with the Watcher. It
// unmarshals the configured key and hands the result to OnConfigChange.
func (rs *ReloadableSubscriber) Handler() ChangeHandler {
	return func(v *viper.Viper) error {
		if err := v.UnmarshalKey(rs.configKey, rs.target); err != nil {
			return fmt.Errorf("failed to unmarshal config key '%s': %w", rs.configKey, err)
		}

		if err := rs.component.OnConfigChange(rs.target); err != nil {
			return fmt.Errorf("component rejected config change: %w", err)
		}

		return nil
	}
}
