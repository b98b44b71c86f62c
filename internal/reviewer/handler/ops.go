package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/reviewer-x/internal/reviewer/biz"
	"github.com/kart-io/reviewer-x/internal/reviewer/metrics"
	"github.com/kart-io/reviewer-x/pkg/component/storage"
	"github.com/kart-io/reviewer-x/pkg/utils/errors"
)

// OpsHandler exposes operational endpoints: review metrics, cache control
// and storage backend health.
type OpsHandler struct {
	service biz.Service
	storage *storage.Manager
}

// NewOpsHandler creates a new OpsHandler. The storage manager may be nil
// when no managed backends are configured.
func NewOpsHandler(service biz.Service, storageMgr *storage.Manager) *OpsHandler {
	return &OpsHandler{service: service, storage: storageMgr}
}

// Metrics exports review metrics in Prometheus text format.
func (h *OpsHandler) Metrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(http.StatusOK, metrics.GetReviewMetrics().Export("reviewer", "review"))
}

// MetricsStats returns review metrics as JSON.
func (h *OpsHandler) MetricsStats(c *gin.Context) {
	c.JSON(http.StatusOK, success(metrics.GetReviewMetrics().Stats()))
}

// CacheStats returns review result cache statistics.
func (h *OpsHandler) CacheStats(c *gin.Context) {
	stats, err := h.service.CacheStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, success(stats))
}

// ClearCache removes all cached review results.
func (h *OpsHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "Review cache cleared"})
}

// errorCodeEntry is the JSON shape for a single registered error code.
type errorCodeEntry struct {
	Code      int    `json:"code"`
	HTTP      int    `json:"http"`
	Service   string `json:"service,omitempty"`
	MessageEN string `json:"message_en"`
	MessageZH string `json:"message_zh,omitempty"`
}

// ErrorCodes lists every registered error code, for client integration
// and API documentation.
func (h *OpsHandler) ErrorCodes(c *gin.Context) {
	registered := errors.GetAllRegistered()
	entries := make([]errorCodeEntry, 0, len(registered))
	for code, e := range registered {
		entry := errorCodeEntry{
			Code:      code,
			HTTP:      e.HTTP,
			MessageEN: e.MessageEN,
			MessageZH: e.MessageZH,
		}
		svc, _, _ := errors.ParseCode(code)
		if name, ok := errors.GetServiceName(svc); ok {
			entry.Service = name
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	c.JSON(http.StatusOK, success(map[string]any{"total": len(entries), "codes": entries}))
}

// storageStatus is the JSON shape for a single backend health entry.
type storageStatus struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// StorageHealth reports the health of all managed storage backends.
func (h *OpsHandler) StorageHealth(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusOK, success(map[string]any{"backends": []storageStatus{}, "healthy": true}))
		return
	}

	statuses := h.storage.HealthCheckAll(c.Request.Context())
	backends := make([]storageStatus, 0, len(statuses))
	healthy := true
	for _, st := range statuses {
		entry := storageStatus{
			Name:      st.Name,
			Healthy:   st.Healthy,
			LatencyMS: st.Latency.Milliseconds(),
		}
		if st.Error != nil {
			entry.Error = st.Error.Error()
		}
		if !st.Healthy {
			healthy = false
		}
		backends = append(backends, entry)
	}

	c.JSON(http.StatusOK, success(map[string]any{"backends": backends, "healthy": healthy}))
}
