package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/pkg/utils/json"
)

// ReviewCacheConfig 审查结果缓存配置。
type ReviewCacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// ReviewCache 审查结果缓存。
// 相同代码、相同技术、相同模型的重复审查直接命中缓存。
type ReviewCache struct {
	redis  *goredis.Client
	config *ReviewCacheConfig
}

// NewReviewCache 创建审查结果缓存实例。
func NewReviewCache(redis *goredis.Client, config *ReviewCacheConfig) *ReviewCache {
	if config == nil {
		config = &ReviewCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "review:result:",
		}
	}
	return &ReviewCache{
		redis:  redis,
		config: config,
	}
}

// cacheKey 基于代码内容、提示技术和模型生成缓存键（SHA256 哈希）。
func (c *ReviewCache) cacheKey(code, technique, modelName string) string {
	hash := sha256.Sum256([]byte(code + "\x00" + technique + "\x00" + modelName))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// Get 从缓存获取传统审查结果。未命中时返回 (nil, nil)。
func (c *ReviewCache) Get(ctx context.Context, code, technique, modelName string) (*model.ReviewResult, error) {
	data, key, err := c.fetch(ctx, code, technique, modelName)
	if err != nil || data == nil {
		return nil, err
	}

	var result model.ReviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warnw("failed to unmarshal cached review", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	logger.Debugw("review cache hit", "key", key, "model", modelName, "technique", technique)
	return &result, nil
}

// Set 将传统审查结果写入缓存。错误结果不缓存。
func (c *ReviewCache) Set(ctx context.Context, code, technique, modelName string, result *model.ReviewResult) error {
	if result == nil || result.IsError() {
		return nil
	}
	return c.store(ctx, code, technique, modelName, result)
}

// GetRAG 从缓存获取检索增强审查结果。未命中时返回 (nil, nil)。
func (c *ReviewCache) GetRAG(ctx context.Context, code, modelName string) (*model.RAGReviewResult, error) {
	data, key, err := c.fetch(ctx, code, model.TechniqueRAG, modelName)
	if err != nil || data == nil {
		return nil, err
	}

	var result model.RAGReviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warnw("failed to unmarshal cached rag review", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	logger.Debugw("rag review cache hit", "key", key, "model", modelName)
	return &result, nil
}

// SetRAG 将检索增强审查结果写入缓存。错误结果不缓存。
func (c *ReviewCache) SetRAG(ctx context.Context, code, modelName string, result *model.RAGReviewResult) error {
	if result == nil || result.Error != "" {
		return nil
	}
	return c.store(ctx, code, model.TechniqueRAG, modelName, result)
}

// fetch 读取缓存原始数据。未命中时返回 (nil, key, nil)。
// 接收者允许为 nil：缓存未装配时等同于未启用。
func (c *ReviewCache) fetch(ctx context.Context, code, technique, modelName string) ([]byte, string, error) {
	if c == nil || !c.config.Enabled || c.redis == nil {
		return nil, "", fmt.Errorf("cache not enabled or redis not available")
	}

	key := c.cacheKey(code, technique, modelName)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			logger.Debugw("review cache miss", "key", key)
			return nil, key, nil
		}
		logger.Warnw("failed to get from review cache", "error", err.Error(), "key", key)
		return nil, key, err
	}
	return data, key, nil
}

// store 序列化并写入缓存。接收者允许为 nil。
func (c *ReviewCache) store(ctx context.Context, code, technique, modelName string, value any) error {
	if c == nil || !c.config.Enabled || c.redis == nil {
		return nil
	}

	key := c.cacheKey(code, technique, modelName)
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warnw("failed to marshal review for caching", "error", err.Error())
		return err
	}

	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set review cache", "error", err.Error(), "key", key)
		return err
	}

	logger.Debugw("cached review result", "key", key, "ttl", c.config.TTL)
	return nil
}

// Clear 清除所有审查结果缓存。接收者允许为 nil。
func (c *ReviewCache) Clear(ctx context.Context) error {
	if c == nil || !c.config.Enabled || c.redis == nil {
		return nil
	}

	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	deletedCount := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deletedCount++
		}
	}

	if err := iter.Err(); err != nil {
		logger.Warnw("error during cache scan", "error", err.Error())
		return err
	}

	logger.Infow("cleared review cache", "deleted_count", deletedCount)
	return nil
}

// GetStats 获取缓存统计信息。接收者允许为 nil。
func (c *ReviewCache) GetStats(ctx context.Context) (map[string]interface{}, error) {
	if c == nil || !c.config.Enabled || c.redis == nil {
		return map[string]interface{}{
			"enabled": false,
		}, nil
	}

	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

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
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}, nil
}
