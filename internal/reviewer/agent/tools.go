package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/reviewer/biz"
	"github.com/kart-io/reviewer-x/internal/reviewer/knowledge"
	"github.com/kart-io/reviewer-x/pkg/utils/json"
)

// Tool 供 Agent 调用的工具。
// Call 始终返回 JSON 字符串，失败时返回含 error 字段的 JSON，
// 这样观察结果可以直接拼回推理上下文。
type Tool interface {
	// Name 工具名，推理输出中的 ACTION 按此名匹配。
	Name() string
	// Description 工具能力描述。
	Description() string
	// Call 以当前请求为输入执行工具。
	Call(ctx context.Context, req *Request) string
}

// errorJSON 将工具错误包装为 JSON 观察结果。
func errorJSON(fields map[string]interface{}) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

// marshalObservation 序列化工具结果，序列化失败时降级为错误 JSON。
func marshalObservation(name string, value interface{}) string {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warnw("工具结果序列化失败", "tool", name, "error", err.Error())
		return errorJSON(map[string]interface{}{
			"error": fmt.Sprintf("%s result marshaling failed: %s", name, err.Error()),
		})
	}
	return string(data)
}

// ragReviewTool 检索增强审查工具。
type ragReviewTool struct {
	service biz.Service
}

func (t *ragReviewTool) Name() string { return "rag_code_review" }

func (t *ragReviewTool) Description() string {
	return "RAG-enhanced code review with industry guidelines"
}

func (t *ragReviewTool) Call(ctx context.Context, req *Request) string {
	result, err := t.service.ReviewWithRAG(ctx, req.Code, req.Language, req.ModelName, 0)
	if err != nil {
		return errorJSON(map[string]interface{}{
			"error":              fmt.Sprintf("RAG review failed: %s", err.Error()),
			"fallback_available": true,
		})
	}
	return marshalObservation(t.Name(), map[string]interface{}{
		"review_type":         "rag_enhanced",
		"rating":              result.OverallRating,
		"issues":              result.Issues,
		"suggestions":         result.Suggestions,
		"reasoning":           result.Reasoning,
		"guidelines_used":     result.GuidelinesUsed,
		"rag_context_quality": result.RAGContextQuality,
		"model_used":          result.ModelUsed,
		"timestamp":           time.Now().Format(time.RFC3339),
	})
}

// traditionalReviewTool 传统零样本审查工具。
type traditionalReviewTool struct {
	service biz.Service
}

func (t *traditionalReviewTool) Name() string { return "traditional_code_review" }

func (t *traditionalReviewTool) Description() string {
	return "Standard LLM-based code review"
}

func (t *traditionalReviewTool) Call(ctx context.Context, req *Request) string {
	result, err := t.service.Review(ctx, req.Code, req.Language, model.TechniqueZeroShot, req.ModelName)
	if err != nil {
		return errorJSON(map[string]interface{}{
			"error": fmt.Sprintf("Traditional review failed: %s", err.Error()),
		})
	}
	return marshalObservation(t.Name(), map[string]interface{}{
		"review_type": "traditional",
		"rating":      result.OverallRating,
		"issues":      result.Issues,
		"suggestions": result.Suggestions,
		"reasoning":   result.Reasoning,
		"model_used":  result.ModelUsed,
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

// searchGuidelinesTool 规范知识库检索工具。
// 检索查询由用户诉求和语言拼接，不依赖推理输出的参数。
type searchGuidelinesTool struct {
	service biz.Service
}

func (t *searchGuidelinesTool) Name() string { return "search_guidelines" }

func (t *searchGuidelinesTool) Description() string {
	return "Search coding guidelines and best practices"
}

func (t *searchGuidelinesTool) Call(ctx context.Context, req *Request) string {
	query := fmt.Sprintf("%s %s", req.UserRequest, req.Language)
	results, err := t.service.SearchGuidelines(ctx, query, "", 3)
	if err != nil {
		return errorJSON(map[string]interface{}{
			"error": fmt.Sprintf("Guidelines search failed: %s", err.Error()),
			"query": query,
		})
	}
	return marshalObservation(t.Name(), map[string]interface{}{
		"query":         query,
		"results_count": len(results),
		"guidelines":    results,
	})
}

// compareApproachesTool 审查方式对比工具。
type compareApproachesTool struct {
	service biz.Service
}

func (t *compareApproachesTool) Name() string { return "compare_review_approaches" }

func (t *compareApproachesTool) Description() string {
	return "Compare RAG vs traditional review methods"
}

func (t *compareApproachesTool) Call(ctx context.Context, req *Request) string {
	comparison, err := t.service.CompareWithTraditional(ctx, req.Code, req.Language, req.ModelName)
	if err != nil {
		return errorJSON(map[string]interface{}{
			"error": fmt.Sprintf("Comparison failed: %s", err.Error()),
		})
	}
	return marshalObservation(t.Name(), comparison)
}

// kbStatsTool 知识库统计工具。
type kbStatsTool struct {
	kb *knowledge.KnowledgeBase
}

func (t *kbStatsTool) Name() string { return "get_knowledge_base_stats" }

func (t *kbStatsTool) Description() string {
	return "Get RAG knowledge base statistics"
}

func (t *kbStatsTool) Call(ctx context.Context, _ *Request) string {
	if t.kb == nil {
		return errorJSON(map[string]interface{}{
			"error": "Failed to get knowledge base stats: knowledge base not configured",
		})
	}
	stats, err := t.kb.Stats(ctx)
	if err != nil {
		return errorJSON(map[string]interface{}{
			"error": fmt.Sprintf("Failed to get knowledge base stats: %s", err.Error()),
		})
	}
	return marshalObservation(t.Name(), stats)
}
