// Package registry 提供模型注册表功能。
//
// 注册表从 YAML 配置文件加载模型定义，按以下规则探测模型可用性：
//   - ollama 供应商通过本地 /api/tags 探测模型是否已拉取
//   - 其他供应商检查对应 API Key 环境变量是否存在
//
// 配置文件通过 fsnotify 监听实现热加载，变更后供应商实例缓存会被清空。
package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"gopkg.in/yaml.v3"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/pkg/component/ollama"
	"github.com/kart-io/reviewer-x/pkg/llm"
	"github.com/kart-io/reviewer-x/pkg/llm/resilience"
)

// ProviderDefaults 供应商级默认配置。
type ProviderDefaults struct {
	// EnvVar 存放 API Key 的环境变量名。
	EnvVar string `yaml:"env_var"`

	// BaseURL API 基础地址，为空时使用各供应商内置默认值。
	BaseURL string `yaml:"base_url"`
}

// fileConfig YAML 配置文件结构。
type fileConfig struct {
	Models    map[string]*model.ModelConfig `yaml:"models"`
	Providers map[string]ProviderDefaults   `yaml:"providers"`
}

// Registry 模型注册表。
type Registry struct {
	mu        sync.RWMutex
	path      string
	models    map[string]*model.ModelConfig
	providers map[string]ProviderDefaults

	// chatCache 按模型名缓存已构建的 ChatProvider，配置重载时清空。
	chatCache map[string]llm.ChatProvider

	// ollamaClient 用于本地模型可用性探测，可以为 nil。
	ollamaClient *ollama.Client

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New 创建模型注册表并加载配置。
func New(path string, ollamaClient *ollama.Client) (*Registry, error) {
	r := &Registry{
		path:         path,
		models:       make(map[string]*model.ModelConfig),
		providers:    make(map[string]ProviderDefaults),
		chatCache:    make(map[string]llm.ChatProvider),
		ollamaClient: ollamaClient,
		done:         make(chan struct{}),
	}

	if err := r.load(); err != nil {
		return nil, fmt.Errorf("加载模型配置失败: %w", err)
	}

	return r, nil
}

// load 从配置文件读取模型定义。
func (r *Registry) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("解析 YAML 失败: %w", err)
	}

	models := make(map[string]*model.ModelConfig, len(cfg.Models))
	for name, mc := range cfg.Models {
		if mc == nil {
			continue
		}
		mc.Name = name
		if mc.Provider == "" {
			return fmt.Errorf("模型 %s 缺少 provider 字段", name)
		}
		if mc.ModelName == "" {
			return fmt.Errorf("模型 %s 缺少 model_name 字段", name)
		}
		models[name] = mc
	}

	r.mu.Lock()
	r.models = models
	r.providers = cfg.Providers
	r.chatCache = make(map[string]llm.ChatProvider)
	r.mu.Unlock()

	logger.Infow("loaded model registry", "path", r.path, "models", len(models))
	return nil
}

// Watch 启动配置文件监听，文件变更时自动重载。
func (r *Registry) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	if err := watcher.Add(r.path); err != nil {
		watcher.Close()
		return fmt.Errorf("监听配置文件失败: %w", err)
	}
	r.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				logger.Infof("Model config changed: %s", event.Name)
				if err := r.load(); err != nil {
					logger.Errorf("Model config reload failed: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("Model config watcher error: %v", err)
			case <-r.done:
				return
			}
		}
	}()

	logger.Infow("watching model config", "path", r.path)
	return nil
}

// Close 停止配置监听。
func (r *Registry) Close() error {
	close(r.done)
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

// Models 返回所有已注册的模型，按名称排序。
func (r *Registry) Models() []*model.ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.ModelConfig, 0, len(r.models))
	for _, mc := range r.models {
		result = append(result, mc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Get 按名称查找模型配置。
func (r *Registry) Get(name string) (*model.ModelConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mc, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("模型 %s 未注册", name)
	}
	return mc, nil
}

// Available 返回当前可用的模型列表。
func (r *Registry) Available(ctx context.Context) []*model.ModelConfig {
	var result []*model.ModelConfig
	for _, mc := range r.Models() {
		if r.IsAvailable(ctx, mc) {
			result = append(result, mc)
		}
	}
	return result
}

// IsAvailable 探测单个模型是否可用。
func (r *Registry) IsAvailable(ctx context.Context, mc *model.ModelConfig) bool {
	if mc.Provider == "ollama" {
		return r.isOllamaModelAvailable(ctx, mc.ModelName)
	}

	envVar := mc.EnvVar
	if envVar == "" {
		r.mu.RLock()
		envVar = r.providers[mc.Provider].EnvVar
		r.mu.RUnlock()
	}
	if envVar == "" {
		return true
	}
	return os.Getenv(envVar) != ""
}

// isOllamaModelAvailable 检查 Ollama 模型是否已在本地拉取。
func (r *Registry) isOllamaModelAvailable(ctx context.Context, modelName string) bool {
	if r.ollamaClient == nil {
		return false
	}

	names, err := r.ollamaClient.ListModels(ctx)
	if err != nil {
		logger.Debugw("ollama model probe failed", "error", err.Error())
		return false
	}
	for _, name := range names {
		if name == modelName {
			return true
		}
	}
	return false
}

// ChatProvider 为指定模型构建（或复用）带韧性包装的 ChatProvider。
func (r *Registry) ChatProvider(ctx context.Context, name string) (llm.ChatProvider, *model.ModelConfig, error) {
	mc, err := r.Get(name)
	if err != nil {
		return nil, nil, err
	}

	r.mu.RLock()
	cached, ok := r.chatCache[name]
	r.mu.RUnlock()
	if ok {
		return cached, mc, nil
	}

	if !r.IsAvailable(ctx, mc) {
		return nil, mc, fmt.Errorf("模型 %s 不可用，请检查 API Key 或本地模型", name)
	}

	provider, err := llm.NewChatProvider(mc.Provider, r.providerConfig(mc))
	if err != nil {
		return nil, mc, fmt.Errorf("创建 %s 供应商失败: %w", mc.Provider, err)
	}

	resilient := resilience.NewResilientChatProvider(provider, nil, nil)

	r.mu.Lock()
	r.chatCache[name] = resilient
	r.mu.Unlock()

	return resilient, mc, nil
}

// providerConfig 组装供应商构建参数。
func (r *Registry) providerConfig(mc *model.ModelConfig) map[string]any {
	r.mu.RLock()
	defaults := r.providers[mc.Provider]
	r.mu.RUnlock()

	cfg := map[string]any{
		"chat_model": mc.ModelName,
	}
	if defaults.BaseURL != "" {
		cfg["base_url"] = defaults.BaseURL
	}

	envVar := mc.EnvVar
	if envVar == "" {
		envVar = defaults.EnvVar
	}
	if envVar != "" {
		cfg["api_key"] = os.Getenv(envVar)
	}

	if mc.Temperature > 0 {
		cfg["temperature"] = mc.Temperature
	}
	if mc.MaxTokens > 0 {
		cfg["max_tokens"] = mc.MaxTokens
	}

	return cfg
}
