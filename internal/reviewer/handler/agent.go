package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/reviewer-x/internal/reviewer/agent"
)

// AgentHandler handles autonomous agent review HTTP requests.
type AgentHandler struct {
	agent *agent.Agent
	files *FileSource
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(a *agent.Agent, files *FileSource) *AgentHandler {
	return &AgentHandler{agent: a, files: files}
}

// Info returns the agent capabilities.
func (h *AgentHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, success(h.agent.Info()))
}

// AgentReviewRequest represents an autonomous review request.
type AgentReviewRequest struct {
	Code          string `json:"code" binding:"required"`
	Language      string `json:"language" binding:"omitempty,langcode"`
	Model         string `json:"model" binding:"omitempty,modelref"`
	UserRequest   string `json:"user_request"`
	MaxIterations int    `json:"max_iterations"`
}

// Review runs the agent on custom code.
func (h *AgentHandler) Review(c *gin.Context) {
	var req AgentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	h.run(c, &agent.Request{
		Code:          req.Code,
		Language:      req.Language,
		ModelName:     req.Model,
		UserRequest:   req.UserRequest,
		MaxIterations: req.MaxIterations,
	}, "")
}

// ReviewFile runs the agent on an example file.
func (h *AgentHandler) ReviewFile(c *gin.Context) {
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

	code, err := h.files.Read(filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	h.run(c, &agent.Request{
		Code:        code,
		Language:    c.DefaultQuery("language", defaultLanguage),
		ModelName:   c.Query("model"),
		UserRequest: c.Query("user_request"),
	}, filename)
}

func (h *AgentHandler) run(c *gin.Context, req *agent.Request, filename string) {
	// Agent 可能调用多个工具，超时按多轮审查计
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*reviewTimeout)
	defer cancel()

	resp, err := h.agent.Run(ctx, req)
	if err != nil {
		writeReviewError(c, ctx, err)
		return
	}

	data := gin.H{"agent_review": resp}
	if filename != "" {
		data["filename"] = filename
	}
	c.JSON(http.StatusOK, success(data))
}
