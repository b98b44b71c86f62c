package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/reviewer/metrics"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
)

// Reviewer 传统提示词代码审查器。
type Reviewer struct {
	registry *registry.Registry
	cache    *ReviewCache
	metrics  *metrics.ReviewMetrics
}

// NewReviewer 创建传统审查器。
func NewReviewer(reg *registry.Registry, cache *ReviewCache) *Reviewer {
	return &Reviewer{
		registry: reg,
		cache:    cache,
		metrics:  metrics.GetReviewMetrics(),
	}
}

// Review 使用指定模型和提示技术审查代码。
// 提示技术或模型无效、上下文超时或取消时返回 error；LLM 调用自身失败时
// 返回错误形态的审查结果（评级为 Error），不返回 error，便于多模型对比时部分失败。
func (r *Reviewer) Review(ctx context.Context, code, language, technique, modelName string) (*model.ReviewResult, error) {
	start := time.Now()

	prompt, err := BuildPrompt(technique, language, code)
	if err != nil {
		return nil, err
	}

	mc, err := r.registry.Get(modelName)
	if err != nil {
		return nil, err
	}

	// 先查缓存
	if cached, cerr := r.cache.Get(ctx, code, technique, modelName); cerr == nil && cached != nil {
		r.metrics.RecordReview(technique, time.Since(start), true, nil)
		return cached, nil
	}

	provider, _, err := r.registry.ChatProvider(ctx, modelName)
	if err != nil {
		return r.errorResult(technique, mc, start, err), nil
	}

	resp, err := provider.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		logger.Warnw("review generation failed",
			"model", modelName, "technique", technique, "error", err.Error())
		r.metrics.RecordReview(technique, time.Since(start), false, err)
		// 上下文超时或取消要让调用方感知（HTTP 层据此返回 408），
		// 只有供应商自身的失败才降级为错误形态的结果。
		if ctx.Err() != nil {
			return nil, fmt.Errorf("review aborted: %w", ctx.Err())
		}
		return r.errorResult(technique, mc, start, err), nil
	}

	if resp.TokenUsage != nil {
		r.metrics.RecordLLMCall(time.Since(start), resp.TokenUsage.PromptTokens, resp.TokenUsage.CompletionTokens, nil)
	} else {
		r.metrics.RecordLLMCall(time.Since(start), 0, 0, nil)
	}

	result := ParseReviewResponse(resp.Content)
	result.ModelUsed = modelName
	result.Provider = mc.Provider
	result.Technique = technique
	result.ExecutionTime = time.Since(start).Seconds()

	r.metrics.RecordReview(technique, time.Since(start), false, nil)

	if err := r.cache.Set(ctx, code, technique, modelName, result); err != nil {
		logger.Debugw("review cache write skipped", "error", err.Error())
	}

	return result, nil
}

// errorResult 构造错误形态的审查结果。
func (r *Reviewer) errorResult(technique string, mc *model.ModelConfig, start time.Time, cause error) *model.ReviewResult {
	return &model.ReviewResult{
		Issues:        []string{fmt.Sprintf("Error during review: %v", cause)},
		Suggestions:   []string{"Check model configuration and API keys"},
		OverallRating: model.RatingError,
		Reasoning:     fmt.Sprintf("Failed to complete review: %v", cause),
		ModelUsed:     mc.Name,
		Provider:      mc.Provider,
		Technique:     technique,
		ExecutionTime: time.Since(start).Seconds(),
		Error:         cause.Error(),
	}
}
