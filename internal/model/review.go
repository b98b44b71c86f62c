// Package model provides data models for the reviewer-x service.
package model

import (
	"time"
)

// Rating values a review may assign to the code under review.
const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingFair      = "Fair"
	RatingPoor      = "Poor"
	RatingError     = "Error"
)

// Prompting techniques supported by the reviewer.
const (
	TechniqueZeroShot = "zero_shot"
	TechniqueFewShot  = "few_shot"
	TechniqueCoT      = "cot"
	TechniqueRAG      = "rag"
)

// Context quality labels used in rag_context_quality, matching the
// vocabulary the RAG prompt asks the model for.
const (
	ContextQualityHigh   = "high"
	ContextQualityMedium = "medium"
	ContextQualityLow    = "low"
)

// ReviewResult represents the outcome of a single code review.
type ReviewResult struct {
	Issues        []string `json:"issues"`
	Suggestions   []string `json:"suggestions"`
	OverallRating string   `json:"overall_rating"`
	Reasoning     string   `json:"reasoning"`
	ModelUsed     string   `json:"model_used"`
	Provider      string   `json:"provider"`
	ExecutionTime float64  `json:"execution_time"`
	Technique     string   `json:"technique"`

	// RawResponse carries the unparsed model output when structured
	// parsing failed. Empty on success.
	RawResponse string `json:"raw_response,omitempty"`
	// Error holds the failure description for error results.
	Error string `json:"error,omitempty"`
}

// IsError reports whether the result represents a failed review.
func (r *ReviewResult) IsError() bool {
	return r.Error != ""
}

// RAGIssue is a structured issue found during a guideline-backed review.
type RAGIssue struct {
	Type               string `json:"type"`
	Severity           string `json:"severity"`
	Description        string `json:"description"`
	LineReference      string `json:"line_reference,omitempty"`
	GuidelineReference string `json:"guideline_reference,omitempty"`
}

// RAGSuggestion is a structured improvement suggestion backed by a guideline.
type RAGSuggestion struct {
	Type               string `json:"type"`
	Description        string `json:"description"`
	CodeExample        string `json:"code_example,omitempty"`
	GuidelineReference string `json:"guideline_reference,omitempty"`
}

// GuidelineRef identifies a knowledge-base chunk used as review context.
type GuidelineRef struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Section  string  `json:"section,omitempty"`
	Source   string  `json:"source,omitempty"`
	Score    float32 `json:"score,omitempty"`
}

// RAGReviewResult is the outcome of a retrieval-augmented review.
type RAGReviewResult struct {
	Issues            []RAGIssue      `json:"issues"`
	Suggestions       []RAGSuggestion `json:"suggestions"`
	OverallRating     string          `json:"overall_rating"`
	Reasoning         string          `json:"reasoning"`
	GuidelinesUsed    []GuidelineRef  `json:"guidelines_used"`
	RAGContextQuality string          `json:"rag_context_quality"`
	ModelUsed         string          `json:"model_used"`
	Provider          string          `json:"provider"`
	ExecutionTime     float64         `json:"execution_time"`
	Technique         string          `json:"technique"`
	SearchQuery       string          `json:"search_query,omitempty"`
	RawResponse       string          `json:"raw_response,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// ModelConfig describes a reviewable model known to the registry.
type ModelConfig struct {
	Name        string  `json:"name" yaml:"name"`
	Provider    string  `json:"provider" yaml:"provider"`
	ModelName   string  `json:"model_name" yaml:"model_name"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Description string  `json:"description" yaml:"description"`
	// EnvVar names the environment variable holding the provider
	// credential. Availability depends on it being set.
	EnvVar string `json:"env_var,omitempty" yaml:"env_var,omitempty"`
}

// ComparisonResult aggregates review results across models.
type ComparisonResult struct {
	Code         string                   `json:"-"`
	Results      map[string]*ReviewResult `json:"results"`
	FastestModel string                   `json:"fastest_model,omitempty"`
	Technique    string                   `json:"technique"`
	ComparedAt   time.Time                `json:"compared_at"`
}

// ReviewRecord is the persisted form of a completed review.
type ReviewRecord struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Filename      string    `json:"filename,omitempty" bson:"filename,omitempty"`
	Model         string    `json:"model" bson:"model"`
	Provider      string    `json:"provider" bson:"provider"`
	Technique     string    `json:"technique" bson:"technique"`
	OverallRating string    `json:"overall_rating" bson:"overall_rating"`
	IssueCount    int       `json:"issue_count" bson:"issue_count"`
	ExecutionTime float64   `json:"execution_time" bson:"execution_time"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
