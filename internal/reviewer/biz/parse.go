package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/reviewer/metrics"
	"github.com/kart-io/reviewer-x/pkg/utils/json"
)

// reviewPayload 传统审查的结构化响应。
type reviewPayload struct {
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Rating      string   `json:"rating"`
	Reasoning   string   `json:"reasoning"`
}

// ragPayload 检索增强审查的结构化响应。
type ragPayload struct {
	Issues            []model.RAGIssue      `json:"issues"`
	Suggestions       []model.RAGSuggestion `json:"suggestions"`
	Rating            string                `json:"rating"`
	Reasoning         string                `json:"reasoning"`
	GuidelinesUsed    []string              `json:"guidelines_used"`
	RAGContextQuality string                `json:"rag_context_quality"`
}

// extractJSON 从 LLM 响应中提取 JSON 文本，依次尝试三种方式：
//  1. ```json 代码块
//  2. 首个 { 到末个 } 之间的内容
//  3. 整段响应（去除首尾空白后以 { 开头时）
//
// 第一种方式之外的提取会记录一次解析降级。
func extractJSON(response string) (string, bool) {
	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end]), true
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		metrics.GetReviewMetrics().RecordParseFallback()
		return response[start : end+1], true
	}

	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "{") {
		metrics.GetReviewMetrics().RecordParseFallback()
		return trimmed, true
	}

	return "", false
}

// truncateRaw 截断原始响应，错误结果里只保留前 200 字符。
func truncateRaw(response string) string {
	if len(response) > 200 {
		return response[:200] + "..."
	}
	return response
}

// ParseReviewResponse 解析传统审查响应。
// 解析失败时返回携带原始响应的错误结果，不返回 error。
func ParseReviewResponse(response string) *model.ReviewResult {
	jsonStr, ok := extractJSON(response)
	if !ok {
		metrics.GetReviewMetrics().RecordParseFailure()
		return &model.ReviewResult{
			Issues:        []string{"Could not parse structured response"},
			Suggestions:   []string{"Improve response format"},
			OverallRating: model.RatingError,
			Reasoning:     fmt.Sprintf("Parsing failed. Raw response: %s", truncateRaw(response)),
			RawResponse:   response,
			Error:         "unstructured response",
		}
	}

	var payload reviewPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		metrics.GetReviewMetrics().RecordParseFailure()
		return &model.ReviewResult{
			Issues:        []string{"JSON parsing error"},
			Suggestions:   []string{"Check response format"},
			OverallRating: model.RatingError,
			Reasoning:     fmt.Sprintf("JSON error: %v. Response: %s", err, truncateRaw(response)),
			RawResponse:   response,
			Error:         err.Error(),
		}
	}

	if payload.Rating == "" {
		payload.Rating = model.RatingFair
	}
	return &model.ReviewResult{
		Issues:        payload.Issues,
		Suggestions:   payload.Suggestions,
		OverallRating: payload.Rating,
		Reasoning:     payload.Reasoning,
	}
}

// ParseRAGReviewResponse 解析检索增强审查响应。
// 结构化解析失败时降级为保守的 Fair 评级结果。
func ParseRAGReviewResponse(response string) *model.RAGReviewResult {
	jsonStr, ok := extractJSON(response)
	if ok {
		var payload ragPayload
		if err := json.Unmarshal([]byte(jsonStr), &payload); err == nil {
			if payload.Rating == "" {
				payload.Rating = model.RatingFair
			}
			result := &model.RAGReviewResult{
				Issues:            payload.Issues,
				Suggestions:       payload.Suggestions,
				OverallRating:     payload.Rating,
				Reasoning:         payload.Reasoning,
				RAGContextQuality: payload.RAGContextQuality,
			}
			for _, g := range payload.GuidelinesUsed {
				result.GuidelinesUsed = append(result.GuidelinesUsed, model.GuidelineRef{Title: g})
			}
			return result
		}
	}

	metrics.GetReviewMetrics().RecordParseFailure()
	return &model.RAGReviewResult{
		Issues: []model.RAGIssue{{
			Severity:    "low",
			Description: "Failed to parse detailed review",
		}},
		Suggestions: []model.RAGSuggestion{{
			Description: "Review response format",
		}},
		OverallRating: model.RatingFair,
		Reasoning:     "Error parsing enhanced review response",
		RawResponse:   response,
	}
}
