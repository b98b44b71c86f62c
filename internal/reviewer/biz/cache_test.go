package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/reviewer-x/internal/model"
)

func TestReviewCacheKey(t *testing.T) {
	cache := NewReviewCache(nil, &ReviewCacheConfig{
		Enabled:   true,
		TTL:       time.Hour,
		KeyPrefix: "review:result:",
	})

	key1 := cache.cacheKey("code-a", model.TechniqueZeroShot, "gpt-4")
	key2 := cache.cacheKey("code-a", model.TechniqueZeroShot, "gpt-4")
	assert.Equal(t, key1, key2)
	assert.Contains(t, key1, "review:result:")

	// 代码、技术、模型任一不同都应产生不同的键。
	assert.NotEqual(t, key1, cache.cacheKey("code-b", model.TechniqueZeroShot, "gpt-4"))
	assert.NotEqual(t, key1, cache.cacheKey("code-a", model.TechniqueCoT, "gpt-4"))
	assert.NotEqual(t, key1, cache.cacheKey("code-a", model.TechniqueZeroShot, "deepseek-chat"))
}

func TestReviewCacheDisabled(t *testing.T) {
	cache := NewReviewCache(nil, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx, "code", model.TechniqueZeroShot, "gpt-4")
	require.Error(t, err)

	// 缓存未启用时写入是空操作。
	err = cache.Set(ctx, "code", model.TechniqueZeroShot, "gpt-4", &model.ReviewResult{
		OverallRating: model.RatingGood,
	})
	assert.NoError(t, err)
}

func TestReviewCacheNilReceiver(t *testing.T) {
	// 服务端在缓存未装配时可能持有 nil 缓存指针，所有方法都必须安全降级。
	var cache *ReviewCache
	ctx := context.Background()

	_, err := cache.Get(ctx, "code", model.TechniqueZeroShot, "gpt-4")
	require.Error(t, err)
	_, err = cache.GetRAG(ctx, "code", "gpt-4")
	require.Error(t, err)

	assert.NoError(t, cache.Set(ctx, "code", model.TechniqueZeroShot, "gpt-4", &model.ReviewResult{
		OverallRating: model.RatingGood,
	}))
	assert.NoError(t, cache.SetRAG(ctx, "code", "gpt-4", &model.RAGReviewResult{}))
	assert.NoError(t, cache.Clear(ctx))

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, false, stats["enabled"])
}

func TestReviewCacheSkipsErrorResults(t *testing.T) {
	cache := NewReviewCache(nil, &ReviewCacheConfig{
		Enabled:   true,
		TTL:       time.Hour,
		KeyPrefix: "review:result:",
	})
	ctx := context.Background()

	// 失败结果不写入缓存，即使缓存已启用也不触发 redis 调用。
	err := cache.Set(ctx, "code", model.TechniqueZeroShot, "gpt-4", &model.ReviewResult{
		OverallRating: model.RatingError,
		Error:         "connection refused",
	})
	assert.NoError(t, err)

	err = cache.SetRAG(ctx, "code", "gpt-4", &model.RAGReviewResult{
		OverallRating: model.RatingError,
		Error:         "connection refused",
	})
	assert.NoError(t, err)
}
