package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/evaluator"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		language string
		contains []string
		excludes []string
	}{
		{
			name:     "密码相关代码命中安全主题",
			code:     `password = "hunter2"`,
			language: "python",
			contains: []string{"python code review best practices", "security authentication"},
		},
		{
			name:     "循环代码命中性能主题",
			code:     "for i := range items {}",
			language: "go",
			contains: []string{"performance optimization loops"},
		},
		{
			name:     "函数定义命中命名规范",
			code:     "def handler(request):",
			language: "python",
			contains: []string{"function naming conventions"},
			excludes: []string{"SQL injection"},
		},
		{
			name:     "错误处理命中对应主题",
			code:     "if err != nil { return err }",
			language: "go",
			contains: []string{"error handling"},
		},
		{
			name:     "SQL 语句命中注入主题",
			code:     `query := "SELECT * FROM users WHERE id = " + id`,
			language: "go",
			contains: []string{"SQL injection security"},
		},
		{
			name:     "普通代码只保留语言项",
			code:     "x = 1",
			language: "python",
			contains: []string{"python code review best practices python"},
			excludes: []string{"security", "error handling"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := buildSearchQuery(tt.code, tt.language)
			for _, term := range tt.contains {
				assert.Contains(t, query, term)
			}
			for _, term := range tt.excludes {
				assert.NotContains(t, query, term)
			}
		})
	}
}

func TestBuildGuidelineContext(t *testing.T) {
	results := []*store.SearchResult{
		{Title: "Error Handling", Category: "reliability", Content: "Wrap errors with context."},
		{Content: "Prefer early returns."},
	}

	context := buildGuidelineContext(results)
	assert.Contains(t, context, "## Guideline 1: Error Handling (reliability)")
	assert.Contains(t, context, "Wrap errors with context.")
	// 缺失的标题和分类使用默认占位。
	assert.Contains(t, context, "## Guideline 2: Guidelines (general)")
	assert.Contains(t, context, "Prefer early returns.")
}

func TestBuildGuidelineContextEmpty(t *testing.T) {
	assert.Equal(t, "", buildGuidelineContext(nil))
}

func TestContextQualityLabel(t *testing.T) {
	// 评估器的四级等级要折算到提示词约定的 high|medium|low 口径，
	// 客户端在同一字段里只应看到一套词汇。
	tests := []struct {
		label string
		want  string
	}{
		{evaluator.QualityExcellent, model.ContextQualityHigh},
		{evaluator.QualityGood, model.ContextQualityHigh},
		{evaluator.QualityFair, model.ContextQualityMedium},
		{evaluator.QualityPoor, model.ContextQualityLow},
		{evaluator.QualityNone, model.ContextQualityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contextQualityLabel(tt.label), tt.label)
	}
}

func TestGuidelineCategories(t *testing.T) {
	refs := []model.GuidelineRef{
		{Title: "A", Category: "security"},
		{Title: "B", Category: "security"},
		{Title: "C", Category: "style"},
		{Title: "D"},
	}

	categories := guidelineCategories(refs)
	assert.Equal(t, []string{"security", "style", "general"}, categories)
}

func TestSplitResults(t *testing.T) {
	results := []*store.SearchResult{
		{Content: "first", Score: 0.9},
		{Content: "second", Score: 0.4},
	}

	contents, scores := splitResults(results)
	assert.Equal(t, []string{"first", "second"}, contents)
	assert.InDelta(t, 0.9, scores[0], 1e-6)
	assert.InDelta(t, 0.4, scores[1], 1e-6)
}
