package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/reviewer-x/internal/reviewer/history"
	"github.com/kart-io/reviewer-x/pkg/utils/errors"
)

// HistoryHandler handles review history HTTP requests.
// When history persistence is disabled the handlers answer 503.
type HistoryHandler struct {
	store *history.Store
}

// NewHistoryHandler creates a new HistoryHandler. store may be nil.
func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

func (h *HistoryHandler) unavailable(c *gin.Context) bool {
	if h.store == nil {
		e := errors.ErrReviewHistoryDisabled
		c.JSON(e.HTTPStatus(), ErrorResponse{Code: e.Code, Message: e.Message("en")})
		return true
	}
	return false
}

// List returns recent review records, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	limit := atoiOrZero(c.Query("limit"))
	records, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, success(gin.H{"records": records, "count": len(records)}))
}

// Stats returns per-model aggregate statistics.
func (h *HistoryHandler) Stats(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	stats, err := h.store.StatsByModel(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, success(gin.H{"models": stats}))
}
