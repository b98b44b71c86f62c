package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/reviewer/biz"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
)

const (
	defaultLanguage  = "python"
	defaultTechnique = model.TechniqueZeroShot

	// 单次审查的超时上限
	reviewTimeout = 60 * time.Second
)

// ReviewHandler handles traditional review HTTP requests.
type ReviewHandler struct {
	service  biz.Service
	registry *registry.Registry
	files    *FileSource
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service biz.Service, reg *registry.Registry, files *FileSource) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		registry: reg,
		files:    files,
	}
}

// ModelInfo is the public view of a registered model.
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	ModelName   string `json:"model_name"`
	Description string `json:"description,omitempty"`
}

// Models lists the currently available models.
func (h *ReviewHandler) Models(c *gin.Context) {
	available := h.registry.Available(c.Request.Context())

	models := make([]ModelInfo, 0, len(available))
	for _, mc := range available {
		models = append(models, ModelInfo{
			Name:        mc.Name,
			Provider:    mc.Provider,
			ModelName:   mc.ModelName,
			Description: mc.Description,
		})
	}

	c.JSON(http.StatusOK, success(gin.H{"models": models, "count": len(models)}))
}

// Files lists the reviewable example files.
func (h *ReviewHandler) Files(c *gin.Context) {
	infos, err := h.files.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, success(gin.H{
		"files":     infos,
		"count":     len(infos),
		"directory": h.files.Dir(),
	}))
}

// ReviewRequest represents a custom code review request.
type ReviewRequest struct {
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"omitempty,langcode"`
	Technique string `json:"technique"`
	Model     string `json:"model" binding:"omitempty,modelref"`
}

func (r *ReviewRequest) applyDefaults() {
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if r.Technique == "" {
		r.Technique = defaultTechnique
	}
}

// resolveModel picks the model to use: the requested one if available,
// otherwise the first available model. Writes the error response and
// returns false when no usable model exists.
func (h *ReviewHandler) resolveModel(c *gin.Context, requested string) (string, bool) {
	return resolveModel(c, h.registry, requested)
}

func resolveModel(c *gin.Context, reg *registry.Registry, requested string) (string, bool) {
	available := reg.Available(c.Request.Context())
	if len(available) == 0 {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Code:    503,
			Message: "No AI models available. Please check your API keys.",
		})
		return "", false
	}

	if requested == "" {
		return available[0].Name, true
	}

	names := make([]string, 0, len(available))
	for _, mc := range available {
		if mc.Name == requested {
			return requested, true
		}
		names = append(names, mc.Name)
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    400,
		Message: "Model " + requested + " not available",
		Details: gin.H{"available_models": names},
	})
	return "", false
}

// writeReviewError maps a review failure to an HTTP response,
// distinguishing timeouts from other errors.
func writeReviewError(c *gin.Context, ctx context.Context, err error) {
	if ctx.Err() == context.DeadlineExceeded {
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Code:    408,
			Message: "Review timeout: the request took too long to process. Please try again with a smaller snippet.",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
}

// Review reviews custom code from the request body.
func (h *ReviewHandler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}
	req.applyDefaults()

	modelName, ok := h.resolveModel(c, req.Model)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), reviewTimeout)
	defer cancel()

	result, err := h.service.Review(ctx, req.Code, req.Language, req.Technique, modelName)
	if err != nil {
		writeReviewError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, success(gin.H{
		"review":     result,
		"code_size":  len(req.Code),
		"code_lines": len(strings.Split(req.Code, "\n")),
	}))
}

// ReviewFile reviews a file from the examples directory.
// Technique, model and language come from query parameters.
func (h *ReviewHandler) ReviewFile(c *gin.Context) {
	filename, err := h.files.Resolve(c.Param("filename"))
	if err != nil {
		names, _ := h.files.Names()
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    404,
			Message: err.Error(),
			Details: gin.H{"available_files": names},
		})
		return
	}

	technique := c.DefaultQuery("technique", defaultTechnique)
	language := c.DefaultQuery("language", defaultLanguage)

	modelName, ok := h.resolveModel(c, c.Query("model"))
	if !ok {
		return
	}

	code, err := h.files.Read(filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), reviewTimeout)
	defer cancel()

	result, err := h.service.Review(ctx, code, language, technique, modelName)
	if err != nil {
		writeReviewError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, success(gin.H{
		"filename":   filename,
		"review":     result,
		"file_size":  len(code),
		"file_lines": len(strings.Split(code, "\n")),
	}))
}

// FileReviewResult is one entry in a review-all batch.
type FileReviewResult struct {
	Filename  string              `json:"filename"`
	Review    *model.ReviewResult `json:"review,omitempty"`
	FileSize  int                 `json:"file_size,omitempty"`
	FileLines int                 `json:"file_lines,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// BatchSummary aggregates a review-all run.
type BatchSummary struct {
	TotalFiles         int     `json:"total_files"`
	SuccessfulReviews  int     `json:"successful_reviews"`
	FailedReviews      int     `json:"failed_reviews"`
	TotalExecutionTime float64 `json:"total_execution_time"`
	AverageTimePerFile float64 `json:"average_time_per_file"`
	TotalIssues        int     `json:"total_issues"`
	ModelUsed          string  `json:"model_used"`
	TechniqueUsed      string  `json:"technique_used"`
}

// ReviewAll reviews every file in the examples directory sequentially.
// Individual file failures are reported per entry without failing the batch.
func (h *ReviewHandler) ReviewAll(c *gin.Context) {
	names, err := h.files.Names()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	if len(names) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    404,
			Message: "No example files found in " + h.files.Dir(),
		})
		return
	}

	technique := c.DefaultQuery("technique", defaultTechnique)
	language := c.DefaultQuery("language", defaultLanguage)

	modelName, ok := h.resolveModel(c, c.Query("model"))
	if !ok {
		return
	}

	start := time.Now()
	results := make([]FileReviewResult, 0, len(names))
	summary := BatchSummary{
		TotalFiles:    len(names),
		ModelUsed:     modelName,
		TechniqueUsed: technique,
	}

	for _, filename := range names {
		logger.Infow("Reviewing file", "filename", filename, "model", modelName)

		code, readErr := h.files.Read(filename)
		if readErr != nil {
			results = append(results, FileReviewResult{Filename: filename, Error: readErr.Error()})
			summary.FailedReviews++
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), reviewTimeout)
		result, reviewErr := h.service.Review(ctx, code, language, technique, modelName)
		cancel()
		if reviewErr != nil {
			results = append(results, FileReviewResult{Filename: filename, Error: reviewErr.Error()})
			summary.FailedReviews++
			continue
		}

		results = append(results, FileReviewResult{
			Filename:  filename,
			Review:    result,
			FileSize:  len(code),
			FileLines: len(strings.Split(code, "\n")),
		})
		summary.SuccessfulReviews++
		summary.TotalIssues += len(result.Issues)
	}

	summary.TotalExecutionTime = time.Since(start).Seconds()
	if len(results) > 0 {
		summary.AverageTimePerFile = summary.TotalExecutionTime / float64(len(results))
	}

	c.JSON(http.StatusOK, success(gin.H{
		"summary":   summary,
		"results":   results,
		"timestamp": time.Now().Format(time.RFC3339),
	}))
}

// CompareRequest represents a model comparison request.
type CompareRequest struct {
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"omitempty,langcode"`
	Technique string `json:"technique"`
}

// CompareModels reviews the same code with every available model.
func (h *ReviewHandler) CompareModels(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}
	if req.Technique == "" {
		req.Technique = defaultTechnique
	}

	// 多模型对比放宽到单模型超时的两倍
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*reviewTimeout)
	defer cancel()

	result, err := h.service.CompareModels(ctx, req.Code, req.Language, req.Technique)
	if err != nil {
		writeReviewError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, success(result))
}
