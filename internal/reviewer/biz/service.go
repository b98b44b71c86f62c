package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/evaluator"
	"github.com/kart-io/reviewer-x/internal/reviewer/knowledge"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
	ctxlog "github.com/kart-io/reviewer-x/pkg/infra/logger"
	"github.com/kart-io/reviewer-x/pkg/infra/pool"
	"github.com/kart-io/reviewer-x/pkg/infra/tracing"
	"github.com/kart-io/reviewer-x/pkg/utils/id"
)

// Service 定义代码审查服务接口。
type Service interface {
	// Review 使用指定模型和提示技术审查代码。
	Review(ctx context.Context, code, language, technique, modelName string) (*model.ReviewResult, error)
	// ReviewWithRAG 执行检索增强审查。
	ReviewWithRAG(ctx context.Context, code, language, modelName string, numGuidelines int) (*model.RAGReviewResult, error)
	// CompareModels 用所有可用模型并发审查同一段代码。
	CompareModels(ctx context.Context, code, language, technique string) (*model.ComparisonResult, error)
	// CompareWithTraditional 对比检索增强审查与传统审查。
	CompareWithTraditional(ctx context.Context, code, language, modelName string) (*RAGComparison, error)
	// SearchGuidelines 检索规范知识库。
	SearchGuidelines(ctx context.Context, query, category string, topK int) ([]*store.SearchResult, error)
	// CacheStats 获取审查结果缓存统计。
	CacheStats(ctx context.Context) (map[string]interface{}, error)
	// ClearCache 清空审查结果缓存。
	ClearCache(ctx context.Context) error
}

// HistoryRecorder 持久化审查记录。实现可以为空（nil 时跳过记录）。
type HistoryRecorder interface {
	Save(ctx context.Context, record *model.ReviewRecord) error
}

// ReviewService 组合各审查组件，实现 Service 接口。
type ReviewService struct {
	reviewer    *Reviewer
	ragReviewer *RAGReviewer
	comparator  *Comparator
	kb          *knowledge.KnowledgeBase
	cache       *ReviewCache
	history     HistoryRecorder
}

// NewReviewService 创建代码审查服务。history 可以为 nil。
func NewReviewService(
	reg *registry.Registry,
	kb *knowledge.KnowledgeBase,
	cache *ReviewCache,
	eval *evaluator.Evaluator,
	history HistoryRecorder,
) *ReviewService {
	reviewer := NewReviewer(reg, cache)
	return &ReviewService{
		reviewer:    reviewer,
		ragReviewer: NewRAGReviewer(kb, reviewer, reg, eval, cache),
		comparator:  NewComparator(reg, reviewer),
		kb:          kb,
		cache:       cache,
		history:     history,
	}
}

// Review 实现 Service 接口。
func (s *ReviewService) Review(ctx context.Context, code, language, technique, modelName string) (*model.ReviewResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewer-biz", "review.execute")
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		tracing.String(tracing.LLMModel, modelName),
		tracing.String(tracing.LLMTechnique, technique),
		tracing.String(tracing.ReviewLang, language),
	)

	ctx = ctxlog.WithTechnique(ctxlog.WithModel(ctx, modelName), technique)
	result, err := s.reviewer.Review(ctx, code, language, technique, modelName)
	if err != nil {
		tracing.RecordError(ctx, err)
		ctxlog.LogError(ctx, "review failed", err, false)
		return nil, err
	}
	tracing.SetSpanOK(ctx)
	s.recordHistory(result.ModelUsed, result.Provider, result.Technique, result.OverallRating, len(result.Issues), result.ExecutionTime)
	return result, nil
}

// ReviewWithRAG 实现 Service 接口。
func (s *ReviewService) ReviewWithRAG(ctx context.Context, code, language, modelName string, numGuidelines int) (*model.RAGReviewResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewer-biz", "review.rag")
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		tracing.String(tracing.LLMModel, modelName),
		tracing.String(tracing.ReviewLang, language),
		tracing.Int("rag.num_guidelines", numGuidelines),
	)

	ctx = ctxlog.WithModel(ctx, modelName)
	result, err := s.ragReviewer.Review(ctx, code, language, modelName, numGuidelines)
	if err != nil {
		tracing.RecordError(ctx, err)
		ctxlog.LogError(ctx, "rag review failed", err, false)
		return nil, err
	}
	tracing.SetSpanOK(ctx)
	s.recordHistory(result.ModelUsed, result.Provider, result.Technique, result.OverallRating, len(result.Issues), result.ExecutionTime)
	return result, nil
}

// CompareModels 实现 Service 接口。
func (s *ReviewService) CompareModels(ctx context.Context, code, language, technique string) (*model.ComparisonResult, error) {
	return s.comparator.CompareModels(ctx, code, language, technique)
}

// CompareWithTraditional 实现 Service 接口。
func (s *ReviewService) CompareWithTraditional(ctx context.Context, code, language, modelName string) (*RAGComparison, error) {
	return s.ragReviewer.CompareWithTraditional(ctx, code, language, modelName)
}

// SearchGuidelines 实现 Service 接口。
func (s *ReviewService) SearchGuidelines(ctx context.Context, query, category string, topK int) ([]*store.SearchResult, error) {
	return s.kb.Search(ctx, query, category, topK)
}

// CacheStats 实现 Service 接口。
func (s *ReviewService) CacheStats(ctx context.Context) (map[string]interface{}, error) {
	return s.cache.GetStats(ctx)
}

// ClearCache 实现 Service 接口。
func (s *ReviewService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// recordHistory 异步持久化审查记录。
// 历史记录是旁路能力，失败只记日志，不影响审查结果返回。
func (s *ReviewService) recordHistory(modelName, provider, technique, rating string, issueCount int, executionTime float64) {
	if s.history == nil {
		return
	}

	record := &model.ReviewRecord{
		ID:            id.NewULID(),
		Model:         modelName,
		Provider:      provider,
		Technique:     technique,
		OverallRating: rating,
		IssueCount:    issueCount,
		ExecutionTime: executionTime,
		CreatedAt:     time.Now(),
	}

	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.Save(ctx, record); err != nil {
			logger.Warnw("failed to persist review record", "error", err.Error(), "id", record.ID)
		}
	}

	// 提交到后台池，降级处理：池不可用时直接用 goroutine
	if err := pool.SubmitToType(pool.BackgroundPool, task); err != nil {
		logger.Warnw("后台池不可用，降级到 goroutine", "error", err.Error())
		go task()
	}
}

var _ Service = (*ReviewService)(nil)
