// Package options contains flags and options for initializing the reviewer server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	reviewer "github.com/kart-io/reviewer-x/internal/reviewer"
	cliflag "github.com/kart-io/reviewer-x/pkg/app/cliflag"
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
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// MilvusOptions contains Milvus database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains the chat provider used for query enhancement and evaluation.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAGOptions contains knowledge base configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// ReviewOptions contains review service configuration.
	ReviewOptions *reviewopts.Options `json:"review" mapstructure:"review"`

	// CacheOptions contains review cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// MongoOptions contains MongoDB configuration for review history.
	MongoOptions *mongoopts.Options `json:"mongo" mapstructure:"mongo"`

	// OllamaOptions contains the Ollama client configuration used for model probing.
	OllamaOptions *ollamaopts.Options `json:"ollama" mapstructure:"ollama"`

	// RecoveryOptions contains recovery middleware configuration.
	RecoveryOptions *middlewareopts.RecoveryOptions `json:"recovery" mapstructure:"recovery"`

	// RequestIDOptions contains request ID middleware configuration.
	RequestIDOptions *middlewareopts.RequestIDOptions `json:"request-id" mapstructure:"request-id"`

	// LoggerOptions contains logger middleware configuration.
	LoggerOptions *middlewareopts.LoggerOptions `json:"logger" mapstructure:"logger"`

	// CORSOptions contains CORS middleware configuration.
	CORSOptions *middlewareopts.CORSOptions `json:"cors" mapstructure:"cors"`

	// TimeoutOptions contains timeout middleware configuration.
	TimeoutOptions *middlewareopts.TimeoutOptions `json:"timeout" mapstructure:"timeout"`

	// HealthOptions contains health check configuration.
	HealthOptions *middlewareopts.HealthOptions `json:"health" mapstructure:"health"`

	// MetricsOptions contains metrics configuration.
	MetricsOptions *middlewareopts.MetricsOptions `json:"metrics" mapstructure:"metrics"`

	// PprofOptions contains pprof configuration.
	PprofOptions *middlewareopts.PprofOptions `json:"pprof" mapstructure:"pprof"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = ":8100"

	return &ServerOptions{
		HTTPOptions:      httpOpts,
		LogOptions:       logopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		RAGOptions:       ragopts.NewOptions(),
		ReviewOptions:    reviewopts.NewOptions(),
		CacheOptions:     cacheopts.NewOptions(),
		MongoOptions:     mongoopts.NewOptions(),
		OllamaOptions:    ollamaopts.NewOptions(),
		RecoveryOptions:  middlewareopts.NewRecoveryOptions(),
		RequestIDOptions: middlewareopts.NewRequestIDOptions(),
		LoggerOptions:    middlewareopts.NewLoggerOptions(),
		HealthOptions:    middlewareopts.NewHealthOptions(),
		MetricsOptions:   middlewareopts.NewMetricsOptions(),
		ShutdownTimeout:  30 * time.Second,
		// CORSOptions, TimeoutOptions, PprofOptions 默认禁用（nil）
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"), "milvus.")
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding.")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat.")
	o.RAGOptions.AddFlags(fss.FlagSet("rag"), "rag.")
	o.ReviewOptions.AddFlags(fss.FlagSet("review"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"), "cache.")
	o.MongoOptions.AddFlags(fss.FlagSet("mongo"))
	o.OllamaOptions.AddFlags(fss.FlagSet("ollama"), "ollama.")

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return err
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.RAGOptions.Complete(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := o.MongoOptions.Complete(); err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	if err := o.LogOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.ReviewOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	if o.ReviewOptions.HistoryEnabled {
		errs = append(errs, o.MongoOptions.Validate()...)
	}
	if err := o.OllamaOptions.Validate(); err != nil {
		errs = append(errs, err)
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a reviewer.Config based on ServerOptions.
func (o *ServerOptions) Config() (*reviewer.Config, error) {
	return &reviewer.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		MilvusOptions:    o.MilvusOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		RAGOptions:       o.RAGOptions,
		ReviewOptions:    o.ReviewOptions,
		CacheOptions:     o.CacheOptions,
		MongoOptions:     o.MongoOptions,
		OllamaOptions:    o.OllamaOptions,
		RecoveryOptions:  o.RecoveryOptions,
		RequestIDOptions: o.RequestIDOptions,
		LoggerOptions:    o.LoggerOptions,
		CORSOptions:      o.CORSOptions,
		TimeoutOptions:   o.TimeoutOptions,
		HealthOptions:    o.HealthOptions,
		MetricsOptions:   o.MetricsOptions,
		PprofOptions:     o.PprofOptions,
		ShutdownTimeout:  o.ShutdownTimeout,
	}, nil
}
