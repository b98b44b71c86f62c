package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/evaluator"
	"github.com/kart-io/reviewer-x/internal/reviewer/knowledge"
	"github.com/kart-io/reviewer-x/internal/reviewer/metrics"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
)

// defaultNumGuidelines 默认检索的规范片段数量。
const defaultNumGuidelines = 3

// RAGReviewer 检索增强代码审查器。
// 审查前先从规范知识库检索相关片段，将其注入提示词，
// 使审查意见可以引用具体规范条目。
type RAGReviewer struct {
	kb        *knowledge.KnowledgeBase
	reviewer  *Reviewer
	registry  *registry.Registry
	evaluator *evaluator.Evaluator
	cache     *ReviewCache
	metrics   *metrics.ReviewMetrics
}

// NewRAGReviewer 创建检索增强审查器。
func NewRAGReviewer(
	kb *knowledge.KnowledgeBase,
	reviewer *Reviewer,
	reg *registry.Registry,
	eval *evaluator.Evaluator,
	cache *ReviewCache,
) *RAGReviewer {
	return &RAGReviewer{
		kb:        kb,
		reviewer:  reviewer,
		registry:  reg,
		evaluator: eval,
		cache:     cache,
		metrics:   metrics.GetReviewMetrics(),
	}
}

// RAGComparison 检索增强审查与传统审查的对比结果。
type RAGComparison struct {
	Traditional *model.ReviewResult    `json:"traditional_review"`
	RAG         *model.RAGReviewResult `json:"rag_enhanced_review"`
	Comparison  ComparisonDelta        `json:"comparison"`
}

// ComparisonDelta 两种审查方式的差异指标。
type ComparisonDelta struct {
	GuidelinesReferenced  int      `json:"guidelines_referenced"`
	ContextQuality        string   `json:"context_quality"`
	AdditionalIssuesFound int      `json:"additional_issues_found"`
	AdditionalSuggestions int      `json:"additional_suggestions"`
	GuidelineCategories   []string `json:"guideline_categories"`
}

// Review 执行检索增强审查。
// 知识库检索不到相关规范时降级为 zero_shot 传统审查，
// 降级结果以 RAGReviewResult 形态返回（技术标记为 zero_shot）。
func (r *RAGReviewer) Review(ctx context.Context, code, language, modelName string, numGuidelines int) (*model.RAGReviewResult, error) {
	start := time.Now()
	if numGuidelines <= 0 {
		numGuidelines = defaultNumGuidelines
	}

	mc, err := r.registry.Get(modelName)
	if err != nil {
		return nil, err
	}

	if cached, cerr := r.cache.GetRAG(ctx, code, modelName); cerr == nil && cached != nil {
		r.metrics.RecordReview(model.TechniqueRAG, time.Since(start), true, nil)
		return cached, nil
	}

	query := buildSearchQuery(code, language)

	retrieval, err := r.kb.Retrieve(ctx, query, "")
	if err != nil || retrieval == nil || len(retrieval.Results) == 0 {
		if err != nil {
			logger.Warnw("guideline retrieval failed, falling back to zero_shot",
				"error", err.Error(), "query", query)
		} else {
			logger.Warnw("no relevant guidelines found, falling back to zero_shot", "query", query)
		}
		r.metrics.RecordRetrievalFallback()
		return r.fallbackReview(ctx, code, language, modelName, query)
	}

	results := retrieval.Results
	if len(results) > numGuidelines {
		results = results[:numGuidelines]
	}

	guidelineContext := buildGuidelineContext(results)
	prompt := BuildRAGPrompt(guidelineContext, language, code)

	provider, _, err := r.registry.ChatProvider(ctx, modelName)
	if err != nil {
		return r.errorResult(mc, start, query, err), nil
	}

	resp, err := provider.Generate(ctx, prompt, ragSystemPrompt)
	if err != nil {
		logger.Warnw("rag review generation failed", "model", modelName, "error", err.Error())
		r.metrics.RecordReview(model.TechniqueRAG, time.Since(start), false, err)
		// 超时和取消上抛，HTTP 层据此返回 408。
		if ctx.Err() != nil {
			return nil, fmt.Errorf("rag review aborted: %w", ctx.Err())
		}
		return r.errorResult(mc, start, query, err), nil
	}

	result := ParseRAGReviewResponse(resp.Content)
	result.ModelUsed = modelName
	result.Provider = mc.Provider
	result.Technique = model.TechniqueRAG
	result.SearchQuery = query
	result.ExecutionTime = time.Since(start).Seconds()
	r.attachGuidelines(result, results)

	// 模型未给出上下文质量判断时，用启发式评估补全
	if result.RAGContextQuality == "" {
		contents, scores := splitResults(results)
		quality := r.evaluator.EvaluateContextQuality(query, contents, scores)
		result.RAGContextQuality = contextQualityLabel(quality.Label)
	}

	r.metrics.RecordReview(model.TechniqueRAG, time.Since(start), false, nil)

	if err := r.cache.SetRAG(ctx, code, modelName, result); err != nil {
		logger.Debugw("rag review cache write skipped", "error", err.Error())
	}

	return result, nil
}

// CompareWithTraditional 对同一段代码分别执行传统审查和检索增强审查。
func (r *RAGReviewer) CompareWithTraditional(ctx context.Context, code, language, modelName string) (*RAGComparison, error) {
	traditional, err := r.reviewer.Review(ctx, code, language, model.TechniqueZeroShot, modelName)
	if err != nil {
		return nil, fmt.Errorf("传统审查失败: %w", err)
	}

	ragResult, err := r.Review(ctx, code, language, modelName, defaultNumGuidelines)
	if err != nil {
		return nil, fmt.Errorf("检索增强审查失败: %w", err)
	}

	return &RAGComparison{
		Traditional: traditional,
		RAG:         ragResult,
		Comparison: ComparisonDelta{
			GuidelinesReferenced:  len(ragResult.GuidelinesUsed),
			ContextQuality:        ragResult.RAGContextQuality,
			AdditionalIssuesFound: len(ragResult.Issues) - len(traditional.Issues),
			AdditionalSuggestions: len(ragResult.Suggestions) - len(traditional.Suggestions),
			GuidelineCategories:   guidelineCategories(ragResult.GuidelinesUsed),
		},
	}, nil
}

// fallbackReview 知识库不可用时的降级审查。
func (r *RAGReviewer) fallbackReview(ctx context.Context, code, language, modelName, query string) (*model.RAGReviewResult, error) {
	traditional, err := r.reviewer.Review(ctx, code, language, model.TechniqueZeroShot, modelName)
	if err != nil {
		return nil, err
	}

	result := &model.RAGReviewResult{
		OverallRating:     traditional.OverallRating,
		Reasoning:         traditional.Reasoning,
		RAGContextQuality: evaluator.QualityNone,
		ModelUsed:         traditional.ModelUsed,
		Provider:          traditional.Provider,
		ExecutionTime:     traditional.ExecutionTime,
		Technique:         traditional.Technique,
		SearchQuery:       query,
		RawResponse:       traditional.RawResponse,
		Error:             traditional.Error,
	}
	for _, issue := range traditional.Issues {
		result.Issues = append(result.Issues, model.RAGIssue{Description: issue})
	}
	for _, s := range traditional.Suggestions {
		result.Suggestions = append(result.Suggestions, model.RAGSuggestion{Description: s})
	}
	return result, nil
}

// contextQualityLabel 将评估器的四级等级映射到审查结果的
// high|medium|low 口径，与提示词约定的取值保持一致。
func contextQualityLabel(label string) string {
	switch label {
	case evaluator.QualityExcellent, evaluator.QualityGood:
		return model.ContextQualityHigh
	case evaluator.QualityFair:
		return model.ContextQualityMedium
	default:
		return model.ContextQualityLow
	}
}

// attachGuidelines 将检索到的规范片段元数据附加到结果。
// 检索元数据以注册表为准，覆盖模型自报的 guidelines_used 标题。
func (r *RAGReviewer) attachGuidelines(result *model.RAGReviewResult, results []*store.SearchResult) {
	refs := make([]model.GuidelineRef, 0, len(results))
	for _, sr := range results {
		refs = append(refs, model.GuidelineRef{
			Title:    sr.Title,
			Category: sr.Category,
			Section:  sr.Section,
			Source:   sr.Source,
			Score:    sr.Score,
		})
	}
	if len(refs) > 0 {
		result.GuidelinesUsed = refs
	}
}

// errorResult 构造错误形态的检索增强审查结果。
func (r *RAGReviewer) errorResult(mc *model.ModelConfig, start time.Time, query string, cause error) *model.RAGReviewResult {
	return &model.RAGReviewResult{
		Issues: []model.RAGIssue{{
			Severity:    "low",
			Description: fmt.Sprintf("Error during review: %v", cause),
		}},
		OverallRating:     model.RatingError,
		Reasoning:         fmt.Sprintf("Failed to complete review: %v", cause),
		RAGContextQuality: evaluator.QualityNone,
		ModelUsed:         mc.Name,
		Provider:          mc.Provider,
		Technique:         model.TechniqueRAG,
		SearchQuery:       query,
		ExecutionTime:     time.Since(start).Seconds(),
		Error:             cause.Error(),
	}
}

// buildSearchQuery 根据代码内容构造知识库检索查询。
// 按代码中出现的模式拼接主题词，提升检索命中率。
func buildSearchQuery(code, language string) string {
	terms := []string{language}
	lower := strings.ToLower(code)

	if strings.Contains(lower, "password") || strings.Contains(lower, "secret") {
		terms = append(terms, "security authentication")
	}
	if strings.Contains(code, "for") && strings.Contains(code, "range") {
		terms = append(terms, "performance optimization loops")
	}
	if strings.Contains(code, "def ") || strings.Contains(code, "func ") || strings.Contains(code, "class ") {
		terms = append(terms, "function naming conventions")
	}
	if strings.Contains(code, "try") || strings.Contains(code, "except") ||
		strings.Contains(code, "catch") || strings.Contains(code, "err != nil") {
		terms = append(terms, "error handling")
	}
	if strings.Contains(code, "import ") {
		terms = append(terms, "imports best practices")
	}
	upper := strings.ToUpper(code)
	if strings.Contains(upper, "SELECT") || strings.Contains(upper, "INSERT") {
		terms = append(terms, "SQL injection security")
	}

	return fmt.Sprintf("%s code review best practices %s", language, strings.Join(terms, " "))
}

// buildGuidelineContext 将检索结果拼装为提示词上下文。
func buildGuidelineContext(results []*store.SearchResult) string {
	var parts []string
	for i, sr := range results {
		category := sr.Category
		if category == "" {
			category = "general"
		}
		title := sr.Title
		if title == "" {
			title = "Guidelines"
		}
		parts = append(parts, fmt.Sprintf("## Guideline %d: %s (%s)\n%s\n", i+1, title, category, sr.Content))
	}
	return strings.Join(parts, "\n")
}

// guidelineCategories 去重提取规范片段的分类。
func guidelineCategories(refs []model.GuidelineRef) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, ref := range refs {
		category := ref.Category
		if category == "" {
			category = "general"
		}
		if !seen[category] {
			seen[category] = true
			categories = append(categories, category)
		}
	}
	return categories
}

// splitResults 拆出检索结果的内容与归一化分数。
func splitResults(results []*store.SearchResult) ([]string, []float64) {
	contents := make([]string, 0, len(results))
	scores := make([]float64, 0, len(results))
	for _, sr := range results {
		contents = append(contents, sr.Content)
		scores = append(scores, float64(sr.Score))
	}
	return contents, scores
}
