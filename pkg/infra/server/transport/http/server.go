package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kart-io/logger"
	"github.com/kart-io/reviewer-x/pkg/infra/server/transport"
	mwopts "github.com/kart-io/reviewer-x/pkg/options/middleware"
	options "github.com/kart-io/reviewer-x/pkg/options/server/http"
	apierrors "github.com/kart-io/reviewer-x/pkg/utils/errors"
)

// Re-export types from options package for convenience
type (
	// Options contains HTTP server configuration.
	Options = options.Options
	// Option is a function that configures Options.
	Option = options.Option
	// AdapterType represents the HTTP framework adapter type.
	AdapterType = options.AdapterType
)

// Re-export constants
const (
	AdapterGin  = options.AdapterGin
	AdapterEcho = options.AdapterEcho
)

// Re-export option functions
var (
	NewOptions       = options.NewOptions
	WithAddr         = options.WithAddr
	WithReadTimeout  = options.WithReadTimeout
	WithWriteTimeout = options.WithWriteTimeout
	WithIdleTimeout  = options.WithIdleTimeout
	WithAdapter      = options.WithAdapter
)

// routeMiddlewares 通过 RouteRegistrar 注册路由而非 engine.Use 的中间件。
var routeMiddlewares = []string{
	mwopts.MiddlewareHealth,
	mwopts.MiddlewareMetrics,
	mwopts.MiddlewarePprof,
	mwopts.MiddlewareVersion,
}

// Server is the HTTP server implementation.
type Server struct {
	opts   *options.Options
	mwOpts *mwopts.Options
	engine *gin.Engine
	server *http.Server
}

// ginValidator wraps transport.Validator for gin binding.
type ginValidator struct {
	validator transport.Validator
}

func (v *ginValidator) ValidateStruct(obj interface{}) error {
	return v.validator.Validate(obj)
}

func (v *ginValidator) Engine() interface{} {
	return nil
}

// NewServer creates a new HTTP server with the given options.
func NewServer(serverOpts *options.Options, middlewareOpts *mwopts.Options) *Server {
	if serverOpts == nil {
		serverOpts = options.NewOptions()
	}
	if middlewareOpts == nil {
		middlewareOpts = mwopts.NewOptions()
	}

	// 设置 Gin 模式
	gin.SetMode(gin.ReleaseMode)

	// 创建 Gin 引擎（不使用默认中间件）
	engine := gin.New()

	s := &Server{
		opts:   serverOpts,
		mwOpts: middlewareOpts,
		engine: engine,
	}

	// 在创建 Server 时就应用中间件
	// 这样所有后续创建的路由组都会继承这些中间件
	s.applyMiddleware(middlewareOpts)

	return s
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SetValidator sets the global validator for the server.
func (s *Server) SetValidator(v transport.Validator) {
	binding.Validator = &ginValidator{validator: v}
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	// Set default 404 handler with JSON response
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    apierrors.ErrRouteNotFound.Code,
			"message": apierrors.ErrRouteNotFound.Message,
		})
	})

	// 注意：中间件已在 NewServer 时应用，这里不再重复应用
	// 这是因为 Gin 的 RouterGroup 在创建子组时会复制当前的 handlers
	// 如果中间件在路由注册之后才应用，则不会被子组继承

	// 注册 health、metrics、pprof、version 等内置路由
	s.registerBuiltinRoutes()

	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// registerBuiltinRoutes 按注册表为启用的路由型中间件注册路由。
func (s *Server) registerBuiltinRoutes() {
	for _, name := range routeMiddlewares {
		if !s.mwOpts.IsEnabled(name) {
			continue
		}
		registrar, ok := mwopts.GetRouteRegistrar(name)
		if !ok {
			continue
		}
		cfg := s.mwOpts.GetConfig(name)
		if cfg == nil {
			continue
		}
		if err := registrar.RegisterRoutes(s.engine, cfg); err != nil {
			logger.Errorw("failed to register routes", "middleware", name, "error", err)
		}
	}
}

// applyMiddleware applies configured middleware to the engine.
// 按 GetMiddlewareOrder 的顺序，从注册表创建并挂载启用的中间件。
func (s *Server) applyMiddleware(opts *mwopts.Options) {
	// Ensure all sub-options are initialized with defaults
	_ = opts.Complete()

	for _, name := range opts.GetMiddlewareOrder() {
		if !opts.IsEnabled(name) {
			continue
		}

		factory, ok := mwopts.GetFactory(name)
		if !ok {
			// health、version 等路由型中间件没有 handler 工厂
			continue
		}
		if factory.NeedsRuntime() {
			continue
		}

		cfg := opts.GetOrCreate(name)
		if cfg == nil {
			continue
		}

		handler, err := factory.Create(cfg)
		if err != nil {
			logger.Errorw("failed to create middleware", "middleware", name, "error", err)
			continue
		}
		s.engine.Use(handler)
	}
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Ensure Server implements the required interfaces.
var _ transport.Transport = (*Server)(nil)
