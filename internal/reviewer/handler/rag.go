package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/reviewer-x/internal/reviewer/biz"
	"github.com/kart-io/reviewer-x/internal/reviewer/knowledge"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
)

const defaultSearchLimit = 5

// RAGHandler handles RAG-enhanced review HTTP requests.
type RAGHandler struct {
	service  biz.Service
	registry *registry.Registry
	kb       *knowledge.KnowledgeBase
	files    *FileSource
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(service biz.Service, reg *registry.Registry, kb *knowledge.KnowledgeBase, files *FileSource) *RAGHandler {
	return &RAGHandler{
		service:  service,
		registry: reg,
		kb:       kb,
		files:    files,
	}
}

// RAGReviewRequest represents a RAG review request for custom code.
type RAGReviewRequest struct {
	Code       string `json:"code" binding:"required"`
	Language   string `json:"language" binding:"omitempty,langcode"`
	Model      string `json:"model" binding:"omitempty,modelref"`
	Guidelines int    `json:"guidelines"`
}

// Review performs a RAG-enhanced review of custom code.
func (h *RAGHandler) Review(c *gin.Context) {
	var req RAGReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}

	modelName, ok := resolveModel(c, h.registry, req.Model)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), reviewTimeout)
	defer cancel()

	result, err := h.service.ReviewWithRAG(ctx, req.Code, req.Language, modelName, req.Guidelines)
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

// ReviewFile performs a RAG-enhanced review of an example file.
func (h *RAGHandler) ReviewFile(c *gin.Context) {
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

	language := c.DefaultQuery("language", defaultLanguage)
	guidelines := 0
	if raw := c.Query("guidelines"); raw != "" {
		guidelines = atoiOrZero(raw)
	}

	modelName, ok := resolveModel(c, h.registry, c.Query("model"))
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

	result, err := h.service.ReviewWithRAG(ctx, code, language, modelName, guidelines)
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

// CompareRAGRequest represents a RAG vs traditional comparison request.
type CompareRAGRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"omitempty,langcode"`
	Model    string `json:"model"`
}

// Compare runs both review modes on the same code and reports the delta.
func (h *RAGHandler) Compare(c *gin.Context) {
	var req CompareRAGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}

	modelName, ok := resolveModel(c, h.registry, req.Model)
	if !ok {
		return
	}

	// 两次完整审查，超时按两倍计
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*reviewTimeout)
	defer cancel()

	comparison, err := h.service.CompareWithTraditional(ctx, req.Code, req.Language, modelName)
	if err != nil {
		writeReviewError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, success(gin.H{
		"comparison": comparison,
		"timestamp":  time.Now().Format(time.RFC3339),
	}))
}

// SearchRequest represents a guidelines search request.
type SearchRequest struct {
	Query    string `json:"query" binding:"required"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

// SearchGuidelines searches the guidelines knowledge base.
func (h *RAGHandler) SearchGuidelines(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	results, err := h.service.SearchGuidelines(c.Request.Context(), req.Query, req.Category, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, success(gin.H{
		"query":    req.Query,
		"category": req.Category,
		"results":  results,
		"count":    len(results),
	}))
}

// Stats returns knowledge base statistics.
func (h *RAGHandler) Stats(c *gin.Context) {
	stats, err := h.kb.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, success(stats))
}

// Refresh rebuilds the knowledge base from its configured sources.
func (h *RAGHandler) Refresh(c *gin.Context) {
	if err := h.kb.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "Knowledge base refreshed successfully"})
}

// IndexRequest represents an index request. Exactly one source must be set.
type IndexRequest struct {
	SourceURL string `json:"source_url"`
	Directory string `json:"directory"`
}

// Index indexes guideline documents from a URL or a local directory.
func (h *RAGHandler) Index(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}
	if (req.SourceURL == "") == (req.Directory == "") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    400,
			Message: "Exactly one of source_url or directory is required",
		})
		return
	}

	var err error
	if req.SourceURL != "" {
		err = h.kb.IndexFromURL(c.Request.Context(), req.SourceURL)
	} else {
		err = h.kb.IndexDirectory(c.Request.Context(), req.Directory)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "Documents indexed successfully"})
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
