package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/reviewer-x/pkg/utils/json"
)

// EmbeddingCacheConfig 控制 Embedding 缓存行为。
type EmbeddingCacheConfig struct {
	// Enabled 为 false 时所有调用直接透传底层 provider。
	Enabled bool
	// TTL 缓存条目过期时间。
	TTL time.Duration
	// KeyPrefix Redis 键前缀，用于隔离和批量清理。
	KeyPrefix string
}

// DefaultEmbeddingCacheConfig 返回默认缓存配置。
// 同一段文本的 Embedding 不会变化，默认保留 24 小时。
func DefaultEmbeddingCacheConfig() *EmbeddingCacheConfig {
	return &EmbeddingCacheConfig{
		Enabled:   true,
		TTL:       24 * time.Hour,
		KeyPrefix: "emb:",
	}
}

// CachedEmbeddingProvider 在任意 EmbeddingProvider 外包一层 Redis 缓存。
// Redis 故障时退化为直通，不影响 Embedding 功能。
type CachedEmbeddingProvider struct {
	inner  EmbeddingProvider
	redis  *goredis.Client
	config *EmbeddingCacheConfig

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEmbeddingProvider 包装 provider；config 为 nil 时使用默认配置。
func NewCachedEmbeddingProvider(
	provider EmbeddingProvider,
	redis *goredis.Client,
	config *EmbeddingCacheConfig,
) *CachedEmbeddingProvider {
	if config == nil {
		config = DefaultEmbeddingCacheConfig()
	}
	return &CachedEmbeddingProvider{
		inner:  provider,
		redis:  redis,
		config: config,
	}
}

func (c *CachedEmbeddingProvider) bypass() bool {
	return !c.config.Enabled || c.redis == nil
}

// cacheKey 对文本取 SHA256，避免把原文写进 Redis 键名。
func (c *CachedEmbeddingProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.config.KeyPrefix + hex.EncodeToString(sum[:])
}

// lookup 返回缓存中的向量；未命中或条目损坏时返回 nil。
// 损坏的条目会被顺手删除。
func (c *CachedEmbeddingProvider) lookup(ctx context.Context, key string) []float32 {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("embedding cache read failed, falling back to provider", "error", err.Error())
		}
		return nil
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		logger.Warnw("corrupt embedding cache entry, evicting", "key", key, "error", err.Error())
		_ = c.redis.Del(ctx, key).Err()
		return nil
	}
	return embedding
}

// save 写入缓存；失败只记录日志，调用方已经拿到结果。
func (c *CachedEmbeddingProvider) save(ctx context.Context, key string, embedding []float32) {
	data, err := json.Marshal(embedding)
	if err != nil {
		logger.Warnw("failed to marshal embedding for cache", "error", err.Error())
		return
	}
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to write embedding cache", "key", key, "error", err.Error())
	}
}

// EmbedSingle 先查缓存，未命中时调用底层 provider 并回填。
func (c *CachedEmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if c.bypass() {
		return c.inner.EmbedSingle(ctx, text)
	}

	key := c.cacheKey(text)
	if embedding := c.lookup(ctx, key); embedding != nil {
		c.hits.Add(1)
		return embedding, nil
	}
	c.misses.Add(1)

	embedding, err := c.inner.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}

	c.save(ctx, key, embedding)
	return embedding, nil
}

// Embed 批量查缓存，仅把未命中的文本发给底层 provider。
func (c *CachedEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.bypass() {
		return c.inner.Embed(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if embedding := c.lookup(ctx, c.cacheKey(text)); embedding != nil {
			embeddings[i] = embedding
			c.hits.Add(1)
			continue
		}
		c.misses.Add(1)
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		logger.Debugw("all embeddings served from cache", "total", len(texts))
		return embeddings, nil
	}

	logger.Debugw("embedding cache partial miss", "total", len(texts), "misses", len(missTexts))
	computed, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for i, idx := range missIdx {
		embeddings[idx] = computed[i]
		c.save(ctx, c.cacheKey(missTexts[i]), computed[i])
	}

	return embeddings, nil
}

// Name 返回底层 provider 名称加 -cached 后缀。
func (c *CachedEmbeddingProvider) Name() string {
	return c.inner.Name() + "-cached"
}

// ClearCache 按前缀 SCAN 并删除所有缓存条目。
func (c *CachedEmbeddingProvider) ClearCache(ctx context.Context) error {
	if c.bypass() {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete embedding cache key", "key", iter.Val(), "error", err.Error())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}

	logger.Infow("embedding cache cleared", "deleted", deleted)
	return nil
}

// GetCacheStats 返回缓存条目数和进程内命中统计。
func (c *CachedEmbeddingProvider) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	if c.bypass() {
		return map[string]interface{}{"enabled": false}, nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	keyCount := 0
	for iter.Next(ctx) {
		keyCount++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"enabled":    true,
		"key_count":  keyCount,
		"hits":       c.hits.Load(),
		"misses":     c.misses.Load(),
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
		"provider":   c.inner.Name(),
	}, nil
}

var _ EmbeddingProvider = (*CachedEmbeddingProvider)(nil)
