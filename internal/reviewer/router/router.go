// Package router provides code review service routing.
package router

import (
	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/reviewer/handler"
	"github.com/kart-io/reviewer-x/pkg/infra/server"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Review  *handler.ReviewHandler
	RAG     *handler.RAGHandler
	Agent   *handler.AgentHandler
	History *handler.HistoryHandler
	Ops     *handler.OpsHandler
}

// Register registers the review service routes.
func Register(mgr *server.Manager, h *Handlers) error {
	httpServer := mgr.HTTPServer()
	if httpServer == nil {
		return nil
	}

	logger.Info("Registering review routes...")
	engine := httpServer.Engine()

	v1 := engine.Group("/v1")
	{
		// Traditional review endpoints
		v1.GET("/models", h.Review.Models)
		v1.GET("/files", h.Review.Files)
		v1.POST("/review", h.Review.Review)
		v1.POST("/review/:filename", h.Review.ReviewFile)
		v1.GET("/review/:filename", h.Review.ReviewFile)
		v1.POST("/review-all", h.Review.ReviewAll)
		v1.GET("/review-all", h.Review.ReviewAll)
		v1.POST("/compare-models", h.Review.CompareModels)

		rag := v1.Group("/rag")
		{
			rag.POST("/review", h.RAG.Review)
			rag.POST("/review/:filename", h.RAG.ReviewFile)
			rag.GET("/review/:filename", h.RAG.ReviewFile)
			rag.POST("/compare", h.RAG.Compare)
			rag.POST("/search-guidelines", h.RAG.SearchGuidelines)
			rag.GET("/knowledge-base/stats", h.RAG.Stats)
			rag.POST("/knowledge-base/refresh", h.RAG.Refresh)
			rag.POST("/index", h.RAG.Index)
		}

		ag := v1.Group("/agent")
		{
			ag.GET("/info", h.Agent.Info)
			ag.POST("/review", h.Agent.Review)
			ag.POST("/review/:filename", h.Agent.ReviewFile)
			ag.GET("/review/:filename", h.Agent.ReviewFile)
		}

		v1.GET("/history", h.History.List)
		v1.GET("/history/stats", h.History.Stats)

		ops := v1.Group("/ops")
		{
			ops.GET("/metrics", h.Ops.Metrics)
			ops.GET("/metrics/stats", h.Ops.MetricsStats)
			ops.GET("/cache/stats", h.Ops.CacheStats)
			ops.POST("/cache/clear", h.Ops.ClearCache)
			ops.GET("/storage/health", h.Ops.StorageHealth)
			ops.GET("/errors", h.Ops.ErrorCodes)
		}
	}

	logger.Info("HTTP routes registered")
	return nil
}
