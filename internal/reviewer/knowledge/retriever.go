package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/enhancer"
	"github.com/kart-io/reviewer-x/internal/reviewer/metrics"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
	"github.com/kart-io/reviewer-x/pkg/llm"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 返回的结果数量。
	TopK int
	// Collection 集合名称。
	Collection string
	// Enhancer 增强器配置。
	Enhancer enhancer.Config
}

// RetrievalResult 表示检索结果。
type RetrievalResult struct {
	// Query 实际用于检索的查询（可能经过增强）。
	Query string
	// Results 检索结果列表。
	Results []*store.SearchResult
}

// Retriever 负责指南检索。
type Retriever struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	enhancer      *enhancer.Enhancer
	config        *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	chatProvider llm.ChatProvider,
	config *RetrieverConfig,
) *Retriever {
	kbEnhancer := enhancer.New(chatProvider, embedProvider, config.Enhancer)
	return &Retriever{
		store:         vectorStore,
		embedProvider: embedProvider,
		enhancer:      kbEnhancer,
		config:        config,
	}
}

// Retrieve 执行指南检索。category 为空时不作分类过滤。
func (r *Retriever) Retrieve(ctx context.Context, query, category string) (*RetrievalResult, error) {
	return r.retrieve(ctx, query, category, r.config.TopK)
}

// RetrieveTopK 以自定义 topK 执行指南检索。
func (r *Retriever) RetrieveTopK(ctx context.Context, query, category string, topK int) (*RetrievalResult, error) {
	if topK <= 0 {
		topK = r.config.TopK
	}
	return r.retrieve(ctx, query, category, topK)
}

func (r *Retriever) retrieve(ctx context.Context, query, category string, topK int) (*RetrievalResult, error) {
	logger.Infow("Retrieving guidelines", "query", query, "category", category)
	start := time.Now()

	// 1. 增强查询（查询重写 + HyDE）
	enhancedQuery, embeddings, err := r.enhancer.EnhanceQuery(ctx, query)
	if err != nil {
		logger.Warnw("查询增强失败，使用原始查询", "error", err.Error())
		queryEmbed, embedErr := r.embedProvider.EmbedSingle(ctx, query)
		if embedErr != nil {
			metrics.GetReviewMetrics().RecordRetrieval(time.Since(start), embedErr)
			return nil, fmt.Errorf("failed to embed query: %w", embedErr)
		}
		embeddings = [][]float32{queryEmbed}
		enhancedQuery = query
	}

	// 2. 执行检索（支持多嵌入检索与分类过滤）
	var allResults []enhancer.SearchResult
	for _, embedding := range embeddings {
		var results []*store.SearchResult
		var searchErr error
		if category != "" {
			results, searchErr = r.store.SearchByCategory(ctx, r.config.Collection, embedding, category, topK)
		} else {
			results, searchErr = r.store.Search(ctx, r.config.Collection, embedding, topK)
		}
		if searchErr != nil {
			logger.Warnw("检索失败", "error", searchErr.Error())
			continue
		}

		for _, res := range results {
			allResults = append(allResults, enhancer.SearchResult{
				ID:      res.ID,
				Content: res.Content,
				Score:   res.Score,
				Metadata: map[string]any{
					"source":   res.Source,
					"title":    res.Title,
					"category": res.Category,
					"section":  res.Section,
				},
			})
		}
	}

	// 合并多次检索结果（如果启用了 HyDE）
	if len(embeddings) > 1 {
		allResults = enhancer.MergeEmbeddingResults([][]enhancer.SearchResult{allResults})
	}

	if len(allResults) == 0 {
		metrics.GetReviewMetrics().RecordRetrieval(time.Since(start), nil)
		return &RetrievalResult{
			Query:   enhancedQuery,
			Results: []*store.SearchResult{},
		}, nil
	}

	// 3. 重排序检索结果
	rerankedResults, err := r.enhancer.RerankResults(ctx, enhancedQuery, allResults)
	if err != nil {
		logger.Warnw("重排序失败，使用原始结果", "error", err.Error())
		rerankedResults = allResults
	}

	// 4. 文档重组（高置信度放首尾）
	repackedResults := r.enhancer.RepackDocuments(rerankedResults)

	storeResults := make([]*store.SearchResult, len(repackedResults))
	for i, res := range repackedResults {
		storeResults[i] = &store.SearchResult{
			ID:       res.ID,
			Source:   metaString(res.Metadata, "source"),
			Title:    metaString(res.Metadata, "title"),
			Category: metaString(res.Metadata, "category"),
			Section:  metaString(res.Metadata, "section"),
			Content:  res.Content,
			Score:    res.Score,
		}
	}

	metrics.GetReviewMetrics().RecordRetrieval(time.Since(start), nil)
	return &RetrievalResult{
		Query:   enhancedQuery,
		Results: storeResults,
	}, nil
}

func metaString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}
