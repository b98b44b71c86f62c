// Package agent 实现自主代码审查 Agent。
//
// Agent 按 分析 -> 推理 -> (工具执行 | 汇总) 的状态机运行：先分析请求确定
// 审查策略，随后在推理循环中挑选工具执行并观察结果，最多迭代 5 轮，
// 最后把所有工具结果汇总为一份审查报告。
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/reviewer/biz"
	"github.com/kart-io/reviewer-x/internal/reviewer/knowledge"
	"github.com/kart-io/reviewer-x/internal/reviewer/metrics"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
	"github.com/kart-io/reviewer-x/pkg/llm"
	"github.com/kart-io/reviewer-x/pkg/utils/json"
)

const (
	agentVersion = "1.0"

	defaultLanguage      = "python"
	defaultModel         = "gpt-4"
	defaultUserRequest   = "Perform a comprehensive code review"
	defaultMaxIterations = 5
)

const analyzerSystemPrompt = `You are an expert code review strategist. Analyze requests and plan the best review approach.`

const synthesizerSystemPrompt = `You are an expert code reviewer providing final comprehensive analysis.`

const analysisTemplate = `Analyze this code review request and determine the best approach:

CODE:
` + "```%[1]s\n%[2]s\n```" + `

USER REQUEST: %[3]s
LANGUAGE: %[1]s

Based on the code and request, determine:
1. What type of review is most appropriate (RAG-enhanced, traditional, comparative)
2. What specific aspects to focus on (security, performance, style, etc.)
3. What information might be needed from the knowledge base
4. The complexity level of the code

Respond with your analysis and initial plan.`

const reasoningTemplate = `Current context:
%[1]s

Based on the analysis and any previous tool results, decide what to do next:

Available tools:
- rag_code_review: RAG-enhanced review with guidelines
- traditional_code_review: Standard LLM review
- search_guidelines: Search for specific guidelines
- compare_review_approaches: Compare different review methods
- get_knowledge_base_stats: Check RAG system status

Decide:
1. Should I use a tool? If so, which one and with what parameters?
2. Do I have enough information to provide a final response?
3. What specific action should I take next?

Respond with your reasoning and the action to take.
Format your response as:
REASONING: [your thought process]
ACTION: [tool_name OR "synthesize" if ready to conclude]`

const synthesisTemplate = `Based on all the analysis and tool results, provide a comprehensive code review response:

ORIGINAL REQUEST: %[1]s
CODE LANGUAGE: %[2]s

ANALYSIS RESULTS:
%[3]s

REASONING PROCESS:
%[4]s

Provide a final, comprehensive code review that:
1. Summarizes the key findings
2. Highlights the most important issues and suggestions
3. Explains the review approach taken
4. Provides actionable recommendations
5. Notes any limitations or areas for further investigation

Format as a professional code review report.`

// Request 自主审查请求。
type Request struct {
	Code          string `json:"code"`
	Language      string `json:"language"`
	ModelName     string `json:"model_name"`
	UserRequest   string `json:"user_request"`
	MaxIterations int    `json:"max_iterations"`
}

// normalize 填充默认值。
func (r *Request) normalize() {
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if r.ModelName == "" {
		r.ModelName = defaultModel
	}
	if r.UserRequest == "" {
		r.UserRequest = defaultUserRequest
	}
	if r.MaxIterations <= 0 || r.MaxIterations > defaultMaxIterations {
		r.MaxIterations = defaultMaxIterations
	}
}

// RequestInfo 响应中回显的请求摘要。
type RequestInfo struct {
	Language    string `json:"language"`
	ModelName   string `json:"model_name"`
	UserRequest string `json:"user_request"`
}

// Analysis Agent 运行过程的元信息。
type Analysis struct {
	Iterations       int    `json:"iterations"`
	ReasoningProcess string `json:"reasoning_process"`
	ToolsUsed        int    `json:"tools_used"`
}

// Metadata 响应元数据。
type Metadata struct {
	Timestamp        string `json:"timestamp"`
	AgentVersion     string `json:"agent_version"`
	WorkflowComplete bool   `json:"workflow_complete"`
}

// Response 自主审查结果。
type Response struct {
	Request       RequestInfo  `json:"request"`
	AgentAnalysis Analysis     `json:"agent_analysis"`
	ReviewResults string       `json:"review_results"`
	ToolResults   []ToolResult `json:"tool_results,omitempty"`
	Metadata      Metadata     `json:"metadata"`
}

// ToolResult 单次工具执行的观察结果。
type ToolResult struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// Info Agent 能力描述。
type Info struct {
	AgentType      string            `json:"agent_type"`
	ModelName      string            `json:"model_name"`
	Capabilities   []string          `json:"capabilities"`
	AvailableTools map[string]string `json:"available_tools"`
	WorkflowNodes  []string          `json:"workflow_nodes"`
	MaxIterations  int               `json:"max_iterations"`
}

// Agent 自主代码审查 Agent。
type Agent struct {
	registry  *registry.Registry
	tools     map[string]Tool
	toolOrder []string
	metrics   *metrics.ReviewMetrics
}

// New 创建 Agent 并注册全部工具。
func New(reg *registry.Registry, service biz.Service, kb *knowledge.KnowledgeBase) *Agent {
	a := &Agent{
		registry: reg,
		tools:    make(map[string]Tool),
		metrics:  metrics.GetReviewMetrics(),
	}
	for _, tool := range []Tool{
		&ragReviewTool{service: service},
		&traditionalReviewTool{service: service},
		&searchGuidelinesTool{service: service},
		&compareApproachesTool{service: service},
		&kbStatsTool{kb: kb},
	} {
		a.tools[tool.Name()] = tool
		a.toolOrder = append(a.toolOrder, tool.Name())
	}
	return a
}

// Info 返回 Agent 的能力信息。
func (a *Agent) Info() *Info {
	descriptions := make(map[string]string, len(a.tools))
	for name, tool := range a.tools {
		descriptions[name] = tool.Description()
	}
	return &Info{
		AgentType:      "CodeReviewAgent",
		ModelName:      defaultModel,
		Capabilities:   []string{"Autonomous code analysis", "Multi-tool coordination", "RAG-enhanced reviews", "Comparative analysis", "Adaptive reasoning"},
		AvailableTools: descriptions,
		WorkflowNodes:  []string{"analyzer", "reasoner", "tool_executor", "synthesizer"},
		MaxIterations:  defaultMaxIterations,
	}
}

// state 单次运行的可变状态。
type state struct {
	reasoning   strings.Builder
	toolResults []ToolResult
}

// Run 执行完整的自主审查流程。
func (a *Agent) Run(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.Code) == "" {
		return nil, fmt.Errorf("代码内容不能为空")
	}
	req.normalize()

	provider, _, err := a.registry.ChatProvider(ctx, req.ModelName)
	if err != nil {
		return nil, fmt.Errorf("获取模型 %s 失败: %w", req.ModelName, err)
	}

	logger.Infow("开始自主代码审查", "language", req.Language, "model", req.ModelName)

	st := &state{}

	// 分析阶段。失败不中断流程，推理阶段仍可在无分析结论的情况下继续。
	analysisPrompt := fmt.Sprintf(analysisTemplate, req.Language, req.Code, req.UserRequest)
	if resp, genErr := provider.Generate(ctx, analysisPrompt, analyzerSystemPrompt); genErr != nil {
		logger.Warnw("请求分析失败", "error", genErr.Error())
		st.reasoning.WriteString(fmt.Sprintf("Analysis failed: %s", genErr.Error()))
	} else {
		st.reasoning.WriteString(fmt.Sprintf("Initial analysis: %s", resp.Content))
	}

	// 推理循环。
	iterations := 0
	for iteration := 1; iteration <= req.MaxIterations; iteration++ {
		iterations = iteration

		reasoningPrompt := fmt.Sprintf(reasoningTemplate, a.buildReasoningContext(req, st, iteration))
		resp, genErr := provider.Generate(ctx, reasoningPrompt, analyzerSystemPrompt)
		if genErr != nil {
			logger.Warnw("推理失败，提前进入汇总", "iteration", iteration, "error", genErr.Error())
			break
		}

		st.reasoning.WriteString(fmt.Sprintf("\n\nIteration %d: %s", iteration, resp.Content))

		action, synthesize := a.parseAction(resp.Content)
		if synthesize {
			break
		}
		if action == "" {
			// 未识别出动作，继续推理。
			continue
		}

		tool, ok := a.tools[action]
		if !ok {
			// 未知工具名也计入迭代，并把错误观察反馈给模型，
			// 让下一轮推理知道该工具不存在。
			logger.Warnw("模型请求了未知工具", "action", action, "iteration", iteration)
			st.toolResults = append(st.toolResults, ToolResult{
				Tool:   action,
				Output: fmt.Sprintf(`{"error": "unknown tool %q, available tools: %s"}`, action, strings.Join(a.toolOrder, ", ")),
			})
			continue
		}
		logger.Infow("执行工具", "tool", action, "iteration", iteration)
		observation := tool.Call(ctx, req)
		st.toolResults = append(st.toolResults, ToolResult{Tool: action, Output: observation})
	}

	a.metrics.RecordAgentRun(iterations, len(st.toolResults))

	// 汇总阶段。
	final, synthErr := a.synthesize(ctx, provider, req, st)
	if synthErr != nil {
		logger.Warnw("结果汇总失败", "error", synthErr.Error())
		final = fmt.Sprintf("Error synthesizing results: %s", synthErr.Error())
	}

	return &Response{
		Request: RequestInfo{
			Language:    req.Language,
			ModelName:   req.ModelName,
			UserRequest: req.UserRequest,
		},
		AgentAnalysis: Analysis{
			Iterations:       iterations,
			ReasoningProcess: st.reasoning.String(),
			ToolsUsed:        len(st.toolResults),
		},
		ReviewResults: final,
		ToolResults:   st.toolResults,
		Metadata: Metadata{
			Timestamp:        time.Now().Format(time.RFC3339),
			AgentVersion:     agentVersion,
			WorkflowComplete: synthErr == nil,
		},
	}, nil
}

// buildReasoningContext 拼装推理上下文。
func (a *Agent) buildReasoningContext(req *Request, st *state, iteration int) string {
	parts := []string{
		fmt.Sprintf("User Request: %s", req.UserRequest),
		fmt.Sprintf("Language: %s", req.Language),
		fmt.Sprintf("Iteration: %d", iteration),
	}
	if len(st.toolResults) > 0 {
		parts = append(parts, fmt.Sprintf("Previous Results: %d tool executions", len(st.toolResults)))
		for _, tr := range st.toolResults {
			parts = append(parts, fmt.Sprintf("Observation from %s:\n%s", tr.Tool, tr.Output))
		}
	}
	return strings.Join(parts, "\n")
}

// parseAction 从推理输出中解析下一步动作。
// 优先取 ACTION: 行，找不到时退化为全文扫描工具名，都失败则进入汇总。
// 返回值为 (动作名, 是否汇总)；ACTION 行指向未知工具时原样返回动作名，
// 调用方据此反馈错误观察。两者都为空值表示继续推理。
func (a *Agent) parseAction(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(trimmed), "ACTION:") {
			continue
		}
		action := strings.TrimSpace(trimmed[len("ACTION:"):])
		lower := strings.ToLower(action)
		if strings.Contains(lower, "synthesize") {
			return "", true
		}
		for _, name := range a.toolOrder {
			if strings.Contains(lower, name) {
				return name, false
			}
		}
		// ACTION 行指向未知工具，原样返回，由循环反馈错误观察。
		return action, false
	}

	for _, name := range a.toolOrder {
		if strings.Contains(content, name) {
			return name, false
		}
	}
	return "", true
}

// synthesize 将分析结果汇总为最终审查报告。
func (a *Agent) synthesize(ctx context.Context, provider llm.ChatProvider, req *Request, st *state) (string, error) {
	resultsJSON := "[]"
	if len(st.toolResults) > 0 {
		if data, err := json.Marshal(st.toolResults); err == nil {
			resultsJSON = string(data)
		}
	}

	prompt := fmt.Sprintf(synthesisTemplate, req.UserRequest, req.Language, resultsJSON, st.reasoning.String())
	resp, err := provider.Generate(ctx, prompt, synthesizerSystemPrompt)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
