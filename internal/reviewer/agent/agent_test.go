package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/reviewer/biz"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
	"github.com/kart-io/reviewer-x/pkg/utils/json"

	_ "github.com/kart-io/reviewer-x/pkg/llm/openai"
)

// mockService 可配置返回值的 biz.Service 实现。
type mockService struct {
	reviewResult *model.ReviewResult
	ragResult    *model.RAGReviewResult
	searchHits   []*store.SearchResult
	err          error
}

func (m *mockService) Review(ctx context.Context, code, language, technique, modelName string) (*model.ReviewResult, error) {
	return m.reviewResult, m.err
}

func (m *mockService) ReviewWithRAG(ctx context.Context, code, language, modelName string, numGuidelines int) (*model.RAGReviewResult, error) {
	return m.ragResult, m.err
}

func (m *mockService) CompareModels(ctx context.Context, code, language, technique string) (*model.ComparisonResult, error) {
	return nil, m.err
}

func (m *mockService) CompareWithTraditional(ctx context.Context, code, language, modelName string) (*biz.RAGComparison, error) {
	return &biz.RAGComparison{}, m.err
}

func (m *mockService) SearchGuidelines(ctx context.Context, query, category string, topK int) ([]*store.SearchResult, error) {
	return m.searchHits, m.err
}

func (m *mockService) CacheStats(ctx context.Context) (map[string]interface{}, error) {
	return nil, m.err
}

func (m *mockService) ClearCache(ctx context.Context) error {
	return m.err
}

var _ biz.Service = (*mockService)(nil)

func newTestAgent(service biz.Service) *Agent {
	return New(nil, service, nil)
}

func TestParseAction(t *testing.T) {
	a := newTestAgent(&mockService{})

	tests := []struct {
		name       string
		content    string
		wantTool   string
		synthesize bool
	}{
		{
			name:     "ACTION 行指定工具",
			content:  "REASONING: need guidelines context\nACTION: rag_code_review",
			wantTool: "rag_code_review",
		},
		{
			name:       "ACTION 行要求汇总",
			content:    "REASONING: enough information gathered\nACTION: synthesize",
			synthesize: true,
		},
		{
			name:     "ACTION 行大小写不敏感",
			content:  "action: Traditional_Code_Review with the current code",
			wantTool: "traditional_code_review",
		},
		{
			name:     "无 ACTION 行时全文扫描工具名",
			content:  "I think we should call search_guidelines first.",
			wantTool: "search_guidelines",
		},
		{
			name:       "无法识别时进入汇总",
			content:    "The code looks simple enough.",
			synthesize: true,
		},
		{
			name:     "ACTION 行指向未知工具时原样返回动作名",
			content:  "ACTION: run_static_analysis",
			wantTool: "run_static_analysis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, synthesize := a.parseAction(tt.content)
			assert.Equal(t, tt.wantTool, tool)
			assert.Equal(t, tt.synthesize, synthesize)
		})
	}
}

func TestRequestNormalize(t *testing.T) {
	req := &Request{Code: "print('hi')"}
	req.normalize()

	assert.Equal(t, "python", req.Language)
	assert.Equal(t, "gpt-4", req.ModelName)
	assert.Equal(t, "Perform a comprehensive code review", req.UserRequest)
	assert.Equal(t, 5, req.MaxIterations)

	// 超出上限的迭代数被收敛到 5。
	req = &Request{Code: "x", MaxIterations: 20}
	req.normalize()
	assert.Equal(t, 5, req.MaxIterations)
}

func TestAgentInfo(t *testing.T) {
	a := newTestAgent(&mockService{})
	info := a.Info()

	assert.Equal(t, "CodeReviewAgent", info.AgentType)
	assert.Equal(t, 5, info.MaxIterations)
	assert.Equal(t, []string{"analyzer", "reasoner", "tool_executor", "synthesizer"}, info.WorkflowNodes)
	assert.Len(t, info.AvailableTools, 5)
	assert.Contains(t, info.AvailableTools, "rag_code_review")
	assert.Contains(t, info.AvailableTools, "get_knowledge_base_stats")
}

func TestRunRejectsEmptyCode(t *testing.T) {
	a := newTestAgent(&mockService{})

	_, err := a.Run(context.Background(), &Request{Code: "   "})
	require.Error(t, err)

	_, err = a.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestRunFeedsUnknownToolObservation(t *testing.T) {
	// 模型请求不存在的工具时，该迭代要把错误观察记入工具结果，
	// 让后续推理上下文包含可用工具列表，而不是被静默跳过。
	var mu sync.Mutex
	calls := 0
	responses := []string{
		"Initial analysis: trivial helper function",
		"REASONING: run an external linter first\nACTION: run_static_analysis",
		"REASONING: no such tool, wrap up\nACTION: synthesize",
		"Final review: looks fine",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		i := calls
		if i >= len(responses) {
			i = len(responses) - 1
		}
		calls++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		payload := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": responses[i]}},
			},
		}
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	cfg := fmt.Sprintf(`
providers:
  openai:
    env_var: OPENAI_API_KEY
    base_url: %s

models:
  gpt-4:
    provider: openai
    model_name: gpt-4
`, srv.URL)
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	t.Setenv("OPENAI_API_KEY", "test-key")

	reg, err := registry.New(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	a := New(reg, &mockService{}, nil)
	resp, err := a.Run(context.Background(), &Request{
		Code:      "def add(a, b):\n    return a + b\n",
		ModelName: "gpt-4",
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolResults, 1)
	assert.Equal(t, "run_static_analysis", resp.ToolResults[0].Tool)
	assert.Contains(t, resp.ToolResults[0].Output, "unknown tool")
	assert.Contains(t, resp.ToolResults[0].Output, "rag_code_review")
	assert.Equal(t, 2, resp.AgentAnalysis.Iterations)
	assert.Equal(t, "Final review: looks fine", resp.ReviewResults)
}

func TestTraditionalReviewTool(t *testing.T) {
	tool := &traditionalReviewTool{service: &mockService{
		reviewResult: &model.ReviewResult{
			OverallRating: model.RatingGood,
			Issues:        []string{"missing error handling"},
			Suggestions:   []string{"wrap errors"},
			ModelUsed:     "gpt-4",
		},
	}}

	output := tool.Call(context.Background(), &Request{Code: "x", Language: "go", ModelName: "gpt-4"})

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &payload))
	assert.Equal(t, "traditional", payload["review_type"])
	assert.Equal(t, model.RatingGood, payload["rating"])
	assert.Equal(t, "gpt-4", payload["model_used"])
}

func TestRAGReviewToolError(t *testing.T) {
	tool := &ragReviewTool{service: &mockService{err: errors.New("milvus unreachable")}}

	output := tool.Call(context.Background(), &Request{Code: "x"})

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &payload))
	assert.Contains(t, payload["error"], "RAG review failed")
	assert.Equal(t, true, payload["fallback_available"])
}

func TestSearchGuidelinesTool(t *testing.T) {
	tool := &searchGuidelinesTool{service: &mockService{
		searchHits: []*store.SearchResult{
			{Title: "Error Handling", Category: "reliability", Content: "Wrap errors."},
		},
	}}

	output := tool.Call(context.Background(), &Request{UserRequest: "focus on reliability", Language: "go"})

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &payload))
	assert.Equal(t, float64(1), payload["results_count"])
	assert.Contains(t, payload["query"], "focus on reliability")
}

func TestKBStatsToolWithoutKnowledgeBase(t *testing.T) {
	tool := &kbStatsTool{}

	output := tool.Call(context.Background(), &Request{})

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &payload))
	assert.Contains(t, payload["error"], "knowledge base not configured")
}
