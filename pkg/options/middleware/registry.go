package middleware

import (
	"fmt"
	"sort"
	"sync"
)

// Registry 中间件配置注册器。
// 管理所有中间件配置的工厂函数，HTTP 服务器启动时按名称创建配置并装配处理链。
type Registry struct {
	mu               sync.RWMutex
	factories        map[string]func() Config
	handlerFactories map[string]Factory
	routeRegistrars  map[string]RouteRegistrar
}

// globalRegistry 全局中间件注册器实例。
var globalRegistry = &Registry{
	factories:        make(map[string]func() Config),
	handlerFactories: make(map[string]Factory),
	routeRegistrars:  make(map[string]RouteRegistrar),
}

// Register 注册中间件配置工厂函数。
// 通常在各中间件文件的 init() 函数中调用。
// 如果同名中间件已注册，会触发 panic。
func Register(name string, factory func() Config) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.factories[name]; exists {
		panic(fmt.Sprintf("middleware %q already registered", name))
	}
	globalRegistry.factories[name] = factory
}

// RegisterFactory 注册中间件工厂。
// 工厂用于根据配置创建 Gin 中间件处理函数。
// 如果同名工厂已注册，会触发 panic。
func RegisterFactory(f Factory) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	name := f.Name()
	if _, exists := globalRegistry.handlerFactories[name]; exists {
		panic(fmt.Sprintf("middleware factory %q already registered", name))
	}
	globalRegistry.handlerFactories[name] = f
}

// RegisterRouteRegistrar 注册路由注册器。
// 某些中间件需要注册独立路由（如 health、metrics、pprof、version）。
func RegisterRouteRegistrar(name string, r RouteRegistrar) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	globalRegistry.routeRegistrars[name] = r
}

// Create 创建中间件配置实例。
// 根据名称查找工厂函数并创建新的配置实例。
func Create(name string) (Config, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	factory, ok := globalRegistry.factories[name]
	if !ok {
		return nil, fmt.Errorf("middleware %q not registered", name)
	}
	return factory(), nil
}

// GetFactory 获取中间件工厂。
func GetFactory(name string) (Factory, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	f, ok := globalRegistry.handlerFactories[name]
	return f, ok
}

// GetRouteRegistrar 获取路由注册器。
func GetRouteRegistrar(name string) (RouteRegistrar, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	r, ok := globalRegistry.routeRegistrars[name]
	return r, ok
}

// ListRegistered 返回所有已注册的中间件名称（按字母排序）。
func ListRegistered() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := make([]string, 0, len(globalRegistry.factories))
	for name := range globalRegistry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
