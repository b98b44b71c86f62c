package middleware

import "github.com/gin-gonic/gin"

// Factory 根据配置创建 gin 中间件处理函数。
// 各中间件实现包在 init() 中通过 RegisterFactory 注册。
type Factory interface {
	// Name 返回中间件名称，与配置注册名一致。
	Name() string

	// NeedsRuntime 表示该中间件是否依赖运行时注入（如 panic 回调、日志器实例），
	// 这类中间件不能仅凭配置自动创建。
	NeedsRuntime() bool

	// Create 根据配置创建中间件处理函数。
	Create(cfg Config) (gin.HandlerFunc, error)
}

// RouteRegistrar 将中间件相关的路由（health、metrics、pprof、version 等）
// 注册到 gin 引擎上。
type RouteRegistrar interface {
	RegisterRoutes(engine *gin.Engine, cfg Config) error
}
