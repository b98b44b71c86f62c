// Package evaluator 提供检索上下文质量评估功能。
//
// 该包从两个维度评估代码审查所依赖的规范片段：
//   - ContextQuality（上下文质量）: 基于检索分数与词项覆盖的启发式评分，
//     映射为 excellent/good/fair/poor 等级
//   - Grounding（依据程度）: 通过 LLM 验证审查结论是否能被规范片段支持
//
// 使用示例:
//
//	eval := evaluator.New(chatProvider, embedProvider)
//	quality := eval.EvaluateContextQuality("error handling", contexts, scores)
package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/reviewer-x/pkg/llm"
)

// 上下文质量等级。
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
	QualityNone      = "none"
)

// QualityResult 上下文质量评估结果。
type QualityResult struct {
	// Score 综合质量分 (0-1)。
	Score float64 `json:"score"`

	// Label 质量等级。
	Label string `json:"label"`

	// Similarity 检索相似度子项 (0-1)。
	Similarity float64 `json:"similarity"`

	// Coverage 查询词项覆盖率子项 (0-1)。
	Coverage float64 `json:"coverage"`
}

// GroundingResult 审查结论依据程度评估结果。
type GroundingResult struct {
	// Score 被规范支持的结论占比 (0-1)。
	Score float64 `json:"score"`

	// SupportedFindings 被支持的结论数量。
	SupportedFindings int `json:"supported_findings"`

	// TotalFindings 总结论数量。
	TotalFindings int `json:"total_findings"`

	// Unsupported 未被规范支持的结论列表。
	Unsupported []string `json:"unsupported,omitempty"`
}

// WeightConfig 质量子项权重配置。
type WeightConfig struct {
	Similarity float64
	Coverage   float64
}

// DefaultWeights 返回默认的质量子项权重。
func DefaultWeights() WeightConfig {
	return WeightConfig{
		Similarity: 0.7,
		Coverage:   0.3,
	}
}

// Evaluator 提供检索上下文质量与依据程度评估。
type Evaluator struct {
	chatProvider  llm.ChatProvider
	embedProvider llm.EmbeddingProvider
	weights       WeightConfig
}

// Option 配置 Evaluator 的选项。
type Option func(*Evaluator)

// WithWeights 设置质量子项权重。
func WithWeights(weights WeightConfig) Option {
	return func(e *Evaluator) {
		e.weights = weights
	}
}

// New 创建新的评估器。
func New(chatProvider llm.ChatProvider, embedProvider llm.EmbeddingProvider, opts ...Option) *Evaluator {
	e := &Evaluator{
		chatProvider:  chatProvider,
		embedProvider: embedProvider,
		weights:       DefaultWeights(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateContextQuality 评估检索上下文质量。
// 纯启发式计算，不调用 LLM，适合在审查主路径上同步执行。
// scores 为各片段的归一化相似度分数 (0-1)，与 contexts 一一对应。
func (e *Evaluator) EvaluateContextQuality(query string, contexts []string, scores []float64) *QualityResult {
	if len(contexts) == 0 {
		return &QualityResult{Label: QualityNone}
	}

	similarity := averageScore(scores)
	coverage := termCoverage(query, contexts)

	score := similarity*e.weights.Similarity + coverage*e.weights.Coverage
	return &QualityResult{
		Score:      score,
		Label:      qualityLabel(score),
		Similarity: similarity,
		Coverage:   coverage,
	}
}

// EvaluateGrounding 评估审查结论的依据程度。
// 逐条验证结论是否能被检索到的规范片段支持，每条结论一次 LLM 调用。
func (e *Evaluator) EvaluateGrounding(ctx context.Context, findings []string, contexts []string) (*GroundingResult, error) {
	result := &GroundingResult{TotalFindings: len(findings)}
	if len(findings) == 0 || len(contexts) == 0 {
		return result, nil
	}
	if e.chatProvider == nil {
		return nil, fmt.Errorf("依据程度评估需要 chat provider")
	}

	combined := strings.Join(contexts, "\n\n")
	for _, finding := range findings {
		supported, err := e.verifyFindingAgainstGuidelines(ctx, finding, combined)
		if err != nil {
			logger.Warnf("验证审查结论失败: %v", err)
			continue
		}
		if supported {
			result.SupportedFindings++
		} else {
			result.Unsupported = append(result.Unsupported, finding)
		}
	}

	result.Score = float64(result.SupportedFindings) / float64(len(findings))
	return result, nil
}

// verifyFindingAgainstGuidelines 验证单条结论是否被规范片段支持。
func (e *Evaluator) verifyFindingAgainstGuidelines(ctx context.Context, finding, guidelines string) (bool, error) {
	prompt := fmt.Sprintf(`判断以下代码审查结论是否被给定的编码规范片段所支持或可以从中推导出来。

审查结论: %s

规范片段:
%s

请只回答 "是" 或 "否"。`, finding, guidelines)

	resp, err := e.chatProvider.Generate(ctx, prompt, "")
	if err != nil {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	return strings.Contains(answer, "是") || strings.Contains(answer, "yes") || strings.Contains(answer, "true"), nil
}

// averageScore 计算相似度分数均值，越界值截断到 [0,1]。
func averageScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
		sum += s
	}
	return sum / float64(len(scores))
}

// termCoverage 计算查询词项在上下文中的覆盖率。
// 长度小于 3 的词项视为噪声，不参与统计。
func termCoverage(query string, contexts []string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	var counted, covered int
	combined := strings.ToLower(strings.Join(contexts, "\n"))

	for _, term := range terms {
		if len(term) < 3 {
			continue
		}
		counted++
		if strings.Contains(combined, term) {
			covered++
		}
	}

	if counted == 0 {
		return 0
	}
	return float64(covered) / float64(counted)
}

// qualityLabel 将综合分映射为质量等级。
func qualityLabel(score float64) string {
	switch {
	case score >= 0.75:
		return QualityExcellent
	case score >= 0.55:
		return QualityGood
	case score >= 0.35:
		return QualityFair
	default:
		return QualityPoor
	}
}
