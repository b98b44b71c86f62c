// Package reviewer provides the code review service server implementation.
package reviewer

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	ginvalidator "github.com/go-playground/validator/v10"
	"github.com/kart-io/logger"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/enhancer"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/evaluator"
	"github.com/kart-io/reviewer-x/internal/reviewer/agent"
	"github.com/kart-io/reviewer-x/internal/reviewer/biz"
	"github.com/kart-io/reviewer-x/internal/reviewer/handler"
	"github.com/kart-io/reviewer-x/internal/reviewer/history"
	"github.com/kart-io/reviewer-x/internal/reviewer/knowledge"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
	"github.com/kart-io/reviewer-x/internal/reviewer/router"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
	"github.com/kart-io/reviewer-x/pkg/component/milvus"
	"github.com/kart-io/reviewer-x/pkg/component/mongodb"
	ollamaclient "github.com/kart-io/reviewer-x/pkg/component/ollama"
	"github.com/kart-io/reviewer-x/pkg/component/storage"
	"github.com/kart-io/reviewer-x/pkg/infra/app"
	"github.com/kart-io/reviewer-x/pkg/infra/server"
	"github.com/kart-io/reviewer-x/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/reviewer-x/pkg/llm/anthropic"
	_ "github.com/kart-io/reviewer-x/pkg/llm/deepseek"
	_ "github.com/kart-io/reviewer-x/pkg/llm/gemini"
	_ "github.com/kart-io/reviewer-x/pkg/llm/huggingface"
	_ "github.com/kart-io/reviewer-x/pkg/llm/ollama"
	_ "github.com/kart-io/reviewer-x/pkg/llm/openai"
	cacheopts "github.com/kart-io/reviewer-x/pkg/options/cache"
	llmopts "github.com/kart-io/reviewer-x/pkg/options/llm"
	logopts "github.com/kart-io/reviewer-x/pkg/options/logger"
	middlewareopts "github.com/kart-io/reviewer-x/pkg/options/middleware"
	milvusopts "github.com/kart-io/reviewer-x/pkg/options/milvus"
	mongoopts "github.com/kart-io/reviewer-x/pkg/options/mongodb"
	ollamaopts "github.com/kart-io/reviewer-x/pkg/options/ollama"
	ragopts "github.com/kart-io/reviewer-x/pkg/options/rag"
	reviewopts "github.com/kart-io/reviewer-x/pkg/options/review"
	httpopts "github.com/kart-io/reviewer-x/pkg/options/server/http"
	"github.com/kart-io/reviewer-x/pkg/utils/validator"
	goredis "github.com/redis/go-redis/v9"
)

// Name is the name of the application.
const Name = "reviewer-x"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	MilvusOptions    *milvusopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	RAGOptions       *ragopts.Options
	ReviewOptions    *reviewopts.Options
	CacheOptions     *cacheopts.Options
	MongoOptions     *mongoopts.Options
	OllamaOptions    *ollamaopts.Options
	RecoveryOptions  *middlewareopts.RecoveryOptions
	RequestIDOptions *middlewareopts.RequestIDOptions
	LoggerOptions    *middlewareopts.LoggerOptions
	CORSOptions      *middlewareopts.CORSOptions
	TimeoutOptions   *middlewareopts.TimeoutOptions
	HealthOptions    *middlewareopts.HealthOptions
	MetricsOptions   *middlewareopts.MetricsOptions
	PprofOptions     *middlewareopts.PprofOptions
	VersionOptions   *middlewareopts.VersionOptions
	ShutdownTimeout  time.Duration
}

// Server represents the reviewer server.
type Server struct {
	srv           *server.Manager
	milvusClose   func()
	redisClose    func()
	mongoClose    func()
	registryClose func()
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	printBanner(cfg)

	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting reviewer service...")

	// 注册自定义校验规则到 gin 的 binding 引擎（langcode、modelref 等）
	if v, ok := binding.Validator.Engine().(*ginvalidator.Validate); ok {
		if err := validator.RegisterRules(v); err != nil {
			return nil, fmt.Errorf("failed to register validation rules: %w", err)
		}
	}

	// 2. 初始化 Milvus 客户端
	milvusClient, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	logger.Info("Milvus client initialized")

	// 3. 初始化 Store 层
	vectorStore := store.NewMilvusStore(milvusClient)
	logger.Info("Vector store initialized")

	// 4. 初始化 Redis 客户端（用于审查结果缓存和 Embedding 缓存）
	var reviewCache *biz.ReviewCache
	var redisConn *goredis.Client
	var redisClose func()
	if cfg.CacheOptions.Enabled {
		redisOpts := cfg.CacheOptions.Redis
		if redisOpts == nil {
			logger.Warn("Cache is enabled but no Redis configuration provided in CacheOptions")
		} else {
			redisClient := goredis.NewClient(&goredis.Options{
				Addr:         fmt.Sprintf("%s:%d", redisOpts.Host, redisOpts.Port),
				Password:     redisOpts.Password,
				DB:           redisOpts.Database,
				MaxRetries:   redisOpts.MaxRetries,
				PoolSize:     redisOpts.PoolSize,
				MinIdleConns: redisOpts.MinIdleConns,
			})

			// 测试 Redis 连接
			if err := redisClient.Ping(context.Background()).Err(); err != nil {
				logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
				_ = redisClient.Close()
			} else {
				reviewCache = biz.NewReviewCache(redisClient, &biz.ReviewCacheConfig{
					Enabled:   true,
					TTL:       cfg.CacheOptions.TTL,
					KeyPrefix: cfg.CacheOptions.KeyPrefix,
				})
				redisConn = redisClient
				redisClose = func() { _ = redisClient.Close() }
				logger.Infow("Redis review cache initialized",
					"host", redisOpts.Host,
					"port", redisOpts.Port,
					"ttl", cfg.CacheOptions.TTL,
				)
			}
		}
	} else {
		logger.Info("Cache is disabled")
	}
	if reviewCache == nil {
		// 缓存未启用或 Redis 不可用时降级为禁用缓存，审查流程照常执行。
		reviewCache = biz.NewReviewCache(nil, nil)
	}

	// 5. 初始化 MongoDB 客户端（用于审查历史，失败时降级为不记录）
	storageMgr := storage.NewManager()
	var historyStore *history.Store
	var mongoClose func()
	if cfg.ReviewOptions.HistoryEnabled {
		mongoClient, err := mongodb.New(buildMongoOptions(cfg.MongoOptions))
		if err != nil {
			logger.Warnw("failed to connect to mongodb, review history will be disabled", "error", err.Error())
		} else {
			historyStore, err = history.New(mongoClient)
			if err != nil {
				logger.Warnw("failed to initialize history store", "error", err.Error())
				_ = mongoClient.Close()
			} else {
				storageMgr.MustRegister("mongo-history", mongoClient)
				mongoClose = func() { _ = mongoClient.Close() }
				logger.Infow("Review history initialized", "database", cfg.MongoOptions.Database)
			}
		}
	} else {
		logger.Info("Review history is disabled")
	}

	// 6. 初始化 LLM 供应商
	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	// Embedding 结果相对稳定，Redis 可用时加一层缓存
	if redisConn != nil {
		embedProvider = llm.NewCachedEmbeddingProvider(embedProvider, redisConn, nil)
		logger.Info("Embedding cache enabled")
	}

	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	// 7. 初始化模型注册表
	ollamaClient := ollamaclient.New(cfg.OllamaOptions)
	reg, err := registry.New(cfg.ReviewOptions.ModelsConfig, ollamaClient)
	if err != nil {
		return nil, fmt.Errorf("failed to load model registry: %w", err)
	}
	var registryClose func()
	if cfg.ReviewOptions.WatchModels {
		if err := reg.Watch(); err != nil {
			logger.Warnw("failed to watch model registry, hot reload disabled", "error", err.Error())
		} else {
			registryClose = func() { _ = reg.Close() }
		}
	}
	logger.Infow("Model registry initialized",
		"path", cfg.ReviewOptions.ModelsConfig,
		"models", len(reg.Models()),
	)

	// 8. 初始化知识库
	indexer := knowledge.NewIndexer(vectorStore, embedProvider, &knowledge.IndexerConfig{
		ChunkSize:    cfg.RAGOptions.ChunkSize,
		ChunkOverlap: cfg.RAGOptions.ChunkOverlap,
		Collection:   cfg.RAGOptions.Collection,
		EmbeddingDim: cfg.RAGOptions.EmbeddingDim,
		DataDir:      cfg.RAGOptions.DataDir,
	})
	retriever := knowledge.NewRetriever(vectorStore, embedProvider, chatProvider, &knowledge.RetrieverConfig{
		TopK:       cfg.RAGOptions.TopK,
		Collection: cfg.RAGOptions.Collection,
		Enhancer: enhancer.Config{
			EnableQueryRewrite: cfg.RAGOptions.Enhancer.EnableQueryRewrite,
			EnableHyDE:         cfg.RAGOptions.Enhancer.EnableHyDE,
			EnableRerank:       cfg.RAGOptions.Enhancer.EnableRerank,
			EnableRepacking:    cfg.RAGOptions.Enhancer.EnableRepacking,
			RerankTopK:         cfg.RAGOptions.Enhancer.RerankTopK,
		},
	})
	kb := knowledge.New(indexer, retriever, vectorStore, &knowledge.ServiceConfig{
		Collection: cfg.RAGOptions.Collection,
		DataDir:    cfg.RAGOptions.DataDir,
	})
	if dir := cfg.ReviewOptions.GuidelinesDir; dir != "" {
		if err := kb.IndexDirectory(ctx, dir); err != nil {
			logger.Warnw("failed to index guidelines directory", "dir", dir, "error", err.Error())
		} else {
			logger.Infow("Guidelines indexed", "dir", dir)
		}
	}
	logger.Info("Knowledge base initialized")

	// 9. 初始化评估器
	ragEvaluator := evaluator.New(chatProvider, embedProvider)
	logger.Info("RAG evaluator initialized")

	// 10. 初始化 Biz 层
	var recorder biz.HistoryRecorder
	if historyStore != nil {
		recorder = historyStore
	}
	reviewService := biz.NewReviewService(reg, kb, reviewCache, ragEvaluator, recorder)
	logger.Infow("Review service initialized",
		"cache.enabled", cfg.CacheOptions.Enabled,
		"history.enabled", historyStore != nil,
	)

	// 11. 初始化 Agent
	reviewAgent := agent.New(reg, reviewService, kb)
	logger.Info("Review agent initialized")

	// 12. 初始化 Handler 层
	files := handler.NewFileSource(cfg.ReviewOptions.ExamplesDir, cfg.ReviewOptions.FileExtension)
	handlers := &router.Handlers{
		Review:  handler.NewReviewHandler(reviewService, reg, files),
		RAG:     handler.NewRAGHandler(reviewService, reg, kb, files),
		Agent:   handler.NewAgentHandler(reviewAgent, files),
		History: handler.NewHistoryHandler(historyStore),
		Ops:     handler.NewOpsHandler(reviewService, storageMgr),
	}
	logger.Info("Handler layer initialized")

	// 13. 初始化服务器
	serverManager := server.NewManager(
		server.WithHTTPOptions(cfg.HTTPOptions),
		server.WithMiddleware(cfg.GetMiddlewareOptions()),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
	)

	// 14. 注册路由
	if err := router.Register(serverManager, handlers); err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	logger.Info("Reviewer service is ready")
	return &Server{
		srv:           serverManager,
		milvusClose:   func() { _ = milvusClient.Close(context.Background()) },
		redisClose:    redisClose,
		mongoClose:    mongoClose,
		registryClose: registryClose,
	}, nil
}

// Run starts the server and listens for termination signals.
func (s *Server) Run(_ context.Context) error {
	defer func() {
		if s.registryClose != nil {
			s.registryClose()
		}
		if s.milvusClose != nil {
			s.milvusClose()
		}
		if s.redisClose != nil {
			s.redisClose()
		}
		if s.mongoClose != nil {
			s.mongoClose()
		}
	}()
	return s.srv.Run()
}

// buildMongoOptions 将配置层选项映射为 mongodb 组件选项。
func buildMongoOptions(o *mongoopts.Options) *mongodb.Options {
	opts := mongodb.NewOptions()
	if o == nil {
		return opts
	}
	opts.URI = o.URI
	opts.Host = o.Host
	opts.Port = o.Port
	opts.Username = o.Username
	opts.Password = o.Password
	opts.Database = o.Database
	opts.MaxPoolSize = o.MaxPoolSize
	opts.MinPoolSize = o.MinPoolSize
	opts.ConnectTimeout = o.ConnectTimeout
	opts.ServerSelectionTimeout = o.ServerSelectionTimeout
	opts.ReplicaSet = o.ReplicaSet
	opts.AuthSource = o.AuthSource
	opts.Direct = o.Direct
	return opts
}

// GetMiddlewareOptions 从各个配置构建中间件选项。
func (cfg *Config) GetMiddlewareOptions() *middlewareopts.Options {
	opts := middlewareopts.NewOptions()

	if cfg.RecoveryOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareRecovery, cfg.RecoveryOptions)
	}
	if cfg.RequestIDOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareRequestID, cfg.RequestIDOptions)
	}
	if cfg.LoggerOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareLogger, cfg.LoggerOptions)
	}
	if cfg.CORSOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareCORS, cfg.CORSOptions)
	}
	if cfg.TimeoutOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareTimeout, cfg.TimeoutOptions)
	}
	if cfg.HealthOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareHealth, cfg.HealthOptions)
	}
	if cfg.MetricsOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareMetrics, cfg.MetricsOptions)
	}
	if cfg.PprofOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewarePprof, cfg.PprofOptions)
	}
	if cfg.VersionOptions != nil {
		opts.SetConfig(middlewareopts.MiddlewareVersion, cfg.VersionOptions)
	}

	return opts
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("  Chat: %s (%s)\n", cfg.ChatOptions.Provider, cfg.ChatOptions.Model)
	fmt.Printf("  Models: %s\n", cfg.ReviewOptions.ModelsConfig)

	// 打印中间件配置
	mw := cfg.GetMiddlewareOptions()
	if mw != nil {
		fmt.Printf("  Enabled Middlewares: %v\n", mw.GetEnabledMiddlewares())
	}
}
