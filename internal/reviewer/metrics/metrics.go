// Package metrics 提供代码评审服务的业务指标收集。
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ReviewMetrics 代码评审服务业务指标。
type ReviewMetrics struct {
	// 评审指标
	reviewsTotal       uint64 // 总评审次数
	reviewsCacheHits   uint64 // 缓存命中次数
	reviewsCacheMisses uint64 // 缓存未命中次数
	reviewsErrors      uint64 // 评审错误次数
	reviewsDuration    float64

	// 检索指标
	retrievalTotal     uint64  // 总检索次数
	retrievalDuration  float64 // 检索总耗时（秒）
	retrievalErrors    uint64  // 检索错误次数
	retrievalFallbacks uint64  // 检索失败降级为 zero_shot 的次数

	// LLM 调用指标
	llmCallsTotal       uint64  // LLM 总调用次数
	llmCallsDuration    float64 // LLM 调用总耗时（秒）
	llmCallsErrors      uint64  // LLM 调用错误次数
	llmTokensPrompt     uint64  // Prompt tokens 总数
	llmTokensCompletion uint64  // Completion tokens 总数

	// Agent 指标
	agentRunsTotal       uint64 // Agent 评审次数
	agentIterationsTotal uint64 // Agent 推理迭代总数
	agentToolCallsTotal  uint64 // Agent 工具调用总数

	// 解析指标
	parseFallbacks uint64 // JSON 解析降级次数
	parseFailures  uint64 // JSON 解析完全失败次数

	// 索引指标
	documentsIndexed uint64 // 已索引文档数
	chunksIndexed    uint64 // 已索引分块数
	indexErrors      uint64 // 索引错误次数

	// 按技术统计评审次数
	techniqueMu     sync.Mutex
	reviewTechnique map[string]uint64

	startTime  time.Time
	durationMu sync.Mutex
}

// globalReviewMetrics 全局评审指标实例。
var (
	globalReviewMetrics *ReviewMetrics
	reviewMetricsOnce   sync.Once
)

// GetReviewMetrics 获取全局评审指标实例。
func GetReviewMetrics() *ReviewMetrics {
	reviewMetricsOnce.Do(func() {
		globalReviewMetrics = &ReviewMetrics{
			startTime:       time.Now(),
			reviewTechnique: make(map[string]uint64),
		}
	})
	return globalReviewMetrics
}

// RecordReview 记录一次评审。
func (m *ReviewMetrics) RecordReview(technique string, duration time.Duration, cacheHit bool, err error) {
	atomic.AddUint64(&m.reviewsTotal, 1)

	m.techniqueMu.Lock()
	if m.reviewTechnique == nil {
		m.reviewTechnique = make(map[string]uint64)
	}
	m.reviewTechnique[technique]++
	m.techniqueMu.Unlock()

	if err != nil {
		atomic.AddUint64(&m.reviewsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.reviewsDuration += duration.Seconds()
	m.durationMu.Unlock()

	if cacheHit {
		atomic.AddUint64(&m.reviewsCacheHits, 1)
	} else {
		atomic.AddUint64(&m.reviewsCacheMisses, 1)
	}
}

// RecordRetrieval 记录检索操作。
func (m *ReviewMetrics) RecordRetrieval(duration time.Duration, err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordRetrievalFallback 记录一次检索降级。
func (m *ReviewMetrics) RecordRetrievalFallback() {
	atomic.AddUint64(&m.retrievalFallbacks, 1)
}

// RecordLLMCall 记录 LLM 调用。
func (m *ReviewMetrics) RecordLLMCall(duration time.Duration, promptTokens, completionTokens int, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()

	if promptTokens > 0 {
		atomic.AddUint64(&m.llmTokensPrompt, uint64(promptTokens))
	}
	if completionTokens > 0 {
		atomic.AddUint64(&m.llmTokensCompletion, uint64(completionTokens))
	}
}

// RecordAgentRun 记录一次 Agent 评审。
func (m *ReviewMetrics) RecordAgentRun(iterations, toolCalls int) {
	atomic.AddUint64(&m.agentRunsTotal, 1)
	if iterations > 0 {
		atomic.AddUint64(&m.agentIterationsTotal, uint64(iterations))
	}
	if toolCalls > 0 {
		atomic.AddUint64(&m.agentToolCallsTotal, uint64(toolCalls))
	}
}

// RecordParseFallback 记录 JSON 解析降级（非首选解析路径命中）。
func (m *ReviewMetrics) RecordParseFallback() {
	atomic.AddUint64(&m.parseFallbacks, 1)
}

// RecordParseFailure 记录 JSON 解析完全失败。
func (m *ReviewMetrics) RecordParseFailure() {
	atomic.AddUint64(&m.parseFailures, 1)
}

// RecordIndexing 记录索引操作。
func (m *ReviewMetrics) RecordIndexing(documents, chunks int, err error) {
	if err != nil {
		atomic.AddUint64(&m.indexErrors, 1)
		return
	}
	atomic.AddUint64(&m.documentsIndexed, uint64(documents))
	atomic.AddUint64(&m.chunksIndexed, uint64(chunks))
}

// Export 导出 Prometheus 格式指标。
func (m *ReviewMetrics) Export(namespace, subsystem string) string {
	var sb strings.Builder
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}

	counter := func(name, help string, value uint64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s counter\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %d\n\n", prefix, name, value))
	}
	gauge := func(name, help string, value float64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s gauge\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %.4f\n\n", prefix, name, value))
	}

	counter("reviews_total", "Total number of code reviews.", atomic.LoadUint64(&m.reviewsTotal))
	counter("reviews_cache_hits_total", "Number of review cache hits.", atomic.LoadUint64(&m.reviewsCacheHits))
	counter("reviews_cache_misses_total", "Number of review cache misses.", atomic.LoadUint64(&m.reviewsCacheMisses))
	counter("reviews_errors_total", "Number of review errors.", atomic.LoadUint64(&m.reviewsErrors))

	// 按技术统计
	m.techniqueMu.Lock()
	techniques := make([]string, 0, len(m.reviewTechnique))
	for t := range m.reviewTechnique {
		techniques = append(techniques, t)
	}
	sort.Strings(techniques)
	sb.WriteString(fmt.Sprintf("# HELP %s_reviews_by_technique_total Reviews by prompting technique.\n", prefix))
	sb.WriteString(fmt.Sprintf("# TYPE %s_reviews_by_technique_total counter\n", prefix))
	for _, t := range techniques {
		sb.WriteString(fmt.Sprintf("%s_reviews_by_technique_total{technique=%q} %d\n", prefix, t, m.reviewTechnique[t]))
	}
	sb.WriteString("\n")
	m.techniqueMu.Unlock()

	cacheHits := atomic.LoadUint64(&m.reviewsCacheHits)
	cacheMisses := atomic.LoadUint64(&m.reviewsCacheMisses)
	cacheHitRate := 0.0
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total)
	}
	gauge("cache_hit_rate", "Review cache hit rate (0-1).", cacheHitRate)

	counter("retrieval_total", "Total number of guideline retrievals.", atomic.LoadUint64(&m.retrievalTotal))
	counter("retrieval_errors_total", "Number of retrieval errors.", atomic.LoadUint64(&m.retrievalErrors))
	counter("retrieval_fallbacks_total", "Reviews degraded to zero_shot after retrieval failure.", atomic.LoadUint64(&m.retrievalFallbacks))

	m.durationMu.Lock()
	reviewDuration := m.reviewsDuration
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	gauge("reviews_duration_seconds_total", "Total review duration.", reviewDuration)
	gauge("retrieval_duration_seconds_total", "Total retrieval duration.", retrievalDuration)

	counter("llm_calls_total", "Total number of LLM calls.", atomic.LoadUint64(&m.llmCallsTotal))
	gauge("llm_calls_duration_seconds_total", "Total LLM call duration.", llmDuration)
	counter("llm_calls_errors_total", "Number of LLM call errors.", atomic.LoadUint64(&m.llmCallsErrors))
	counter("llm_tokens_prompt_total", "Total prompt tokens.", atomic.LoadUint64(&m.llmTokensPrompt))
	counter("llm_tokens_completion_total", "Total completion tokens.", atomic.LoadUint64(&m.llmTokensCompletion))

	counter("agent_runs_total", "Total agent review runs.", atomic.LoadUint64(&m.agentRunsTotal))
	counter("agent_iterations_total", "Total agent reasoning iterations.", atomic.LoadUint64(&m.agentIterationsTotal))
	counter("agent_tool_calls_total", "Total agent tool calls.", atomic.LoadUint64(&m.agentToolCallsTotal))

	counter("parse_fallbacks_total", "Responses parsed via a fallback path.", atomic.LoadUint64(&m.parseFallbacks))
	counter("parse_failures_total", "Responses that failed structured parsing.", atomic.LoadUint64(&m.parseFailures))

	counter("documents_indexed_total", "Total documents indexed.", atomic.LoadUint64(&m.documentsIndexed))
	counter("chunks_indexed_total", "Total chunks indexed.", atomic.LoadUint64(&m.chunksIndexed))
	counter("index_errors_total", "Number of indexing errors.", atomic.LoadUint64(&m.indexErrors))

	gauge("uptime_seconds", "Service uptime in seconds.", time.Since(m.startTime).Seconds())

	return sb.String()
}

// Stats 返回当前统计信息（用于 API）。
func (m *ReviewMetrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	reviewDuration := m.reviewsDuration
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	reviewsTotal := atomic.LoadUint64(&m.reviewsTotal)
	cacheHits := atomic.LoadUint64(&m.reviewsCacheHits)
	cacheMisses := atomic.LoadUint64(&m.reviewsCacheMisses)
	cacheTotal := cacheHits + cacheMisses
	cacheHitRate := 0.0
	if cacheTotal > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheTotal)
	}

	retrievalTotal := atomic.LoadUint64(&m.retrievalTotal)
	avgRetrievalDuration := 0.0
	if retrievalTotal > 0 {
		avgRetrievalDuration = retrievalDuration / float64(retrievalTotal)
	}

	llmTotal := atomic.LoadUint64(&m.llmCallsTotal)
	avgLLMDuration := 0.0
	if llmTotal > 0 {
		avgLLMDuration = llmDuration / float64(llmTotal)
	}

	agentRuns := atomic.LoadUint64(&m.agentRunsTotal)
	avgIterations := 0.0
	if agentRuns > 0 {
		avgIterations = float64(atomic.LoadUint64(&m.agentIterationsTotal)) / float64(agentRuns)
	}

	m.techniqueMu.Lock()
	byTechnique := make(map[string]uint64, len(m.reviewTechnique))
	for t, n := range m.reviewTechnique {
		byTechnique[t] = n
	}
	m.techniqueMu.Unlock()

	return map[string]interface{}{
		"reviews": map[string]interface{}{
			"total":               reviewsTotal,
			"by_technique":        byTechnique,
			"cache_hits":          cacheHits,
			"cache_misses":        cacheMisses,
			"cache_hit_rate":      cacheHitRate,
			"errors":              atomic.LoadUint64(&m.reviewsErrors),
			"total_duration_secs": reviewDuration,
		},
		"retrieval": map[string]interface{}{
			"total":               retrievalTotal,
			"total_duration_secs": retrievalDuration,
			"avg_duration_secs":   avgRetrievalDuration,
			"errors":              atomic.LoadUint64(&m.retrievalErrors),
			"fallbacks":           atomic.LoadUint64(&m.retrievalFallbacks),
		},
		"llm": map[string]interface{}{
			"calls_total":         llmTotal,
			"total_duration_secs": llmDuration,
			"avg_duration_secs":   avgLLMDuration,
			"errors":              atomic.LoadUint64(&m.llmCallsErrors),
			"tokens_prompt":       atomic.LoadUint64(&m.llmTokensPrompt),
			"tokens_completion":   atomic.LoadUint64(&m.llmTokensCompletion),
		},
		"agent": map[string]interface{}{
			"runs":           agentRuns,
			"iterations":     atomic.LoadUint64(&m.agentIterationsTotal),
			"avg_iterations": avgIterations,
			"tool_calls":     atomic.LoadUint64(&m.agentToolCallsTotal),
		},
		"parsing": map[string]interface{}{
			"fallbacks": atomic.LoadUint64(&m.parseFallbacks),
			"failures":  atomic.LoadUint64(&m.parseFailures),
		},
		"indexing": map[string]interface{}{
			"documents_indexed": atomic.LoadUint64(&m.documentsIndexed),
			"chunks_indexed":    atomic.LoadUint64(&m.chunksIndexed),
			"errors":            atomic.LoadUint64(&m.indexErrors),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset 重置所有指标（仅用于测试）。
func (m *ReviewMetrics) Reset() {
	atomic.StoreUint64(&m.reviewsTotal, 0)
	atomic.StoreUint64(&m.reviewsCacheHits, 0)
	atomic.StoreUint64(&m.reviewsCacheMisses, 0)
	atomic.StoreUint64(&m.reviewsErrors, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.retrievalFallbacks, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.llmTokensPrompt, 0)
	atomic.StoreUint64(&m.llmTokensCompletion, 0)
	atomic.StoreUint64(&m.agentRunsTotal, 0)
	atomic.StoreUint64(&m.agentIterationsTotal, 0)
	atomic.StoreUint64(&m.agentToolCallsTotal, 0)
	atomic.StoreUint64(&m.parseFallbacks, 0)
	atomic.StoreUint64(&m.parseFailures, 0)
	atomic.StoreUint64(&m.documentsIndexed, 0)
	atomic.StoreUint64(&m.chunksIndexed, 0)
	atomic.StoreUint64(&m.indexErrors, 0)

	m.techniqueMu.Lock()
	m.reviewTechnique = make(map[string]uint64)
	m.techniqueMu.Unlock()

	m.durationMu.Lock()
	m.reviewsDuration = 0
	m.retrievalDuration = 0
	m.llmCallsDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
