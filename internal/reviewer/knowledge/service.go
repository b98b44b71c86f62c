// Package knowledge 实现代码评审指南知识库：索引、检索与统计。
package knowledge

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
)

// Service 定义知识库服务接口。
type Service interface {
	// IndexDirectory 索引目录中的指南文档。
	IndexDirectory(ctx context.Context, dir string) error

	// IndexFromURL 从 URL 下载并索引指南文档。
	IndexFromURL(ctx context.Context, url string) error

	// Search 检索指南。category 为空时不过滤分类。
	Search(ctx context.Context, query, category string, topK int) ([]*store.SearchResult, error)

	// Stats 返回知识库统计信息。
	Stats(ctx context.Context) (*Stats, error)

	// Refresh 重建知识库索引。
	Refresh(ctx context.Context) error

	// Categories 返回知识库中的全部分类。
	Categories(ctx context.Context) ([]string, error)
}

// Stats 知识库统计信息。
type Stats struct {
	TotalChunks int64            `json:"total_chunks"`
	Categories  map[string]int64 `json:"categories"`
	Collection  string           `json:"collection"`
	DataDir     string           `json:"data_dir"`
}

// ServiceConfig 知识库服务配置。
type ServiceConfig struct {
	Collection string
	DataDir    string
}

// KnowledgeBase 组合索引器与检索器实现 Service。
type KnowledgeBase struct {
	indexer   *Indexer
	retriever *Retriever
	store     store.VectorStore
	config    *ServiceConfig
}

// New 创建知识库服务实例。
func New(indexer *Indexer, retriever *Retriever, vectorStore store.VectorStore, config *ServiceConfig) *KnowledgeBase {
	return &KnowledgeBase{
		indexer:   indexer,
		retriever: retriever,
		store:     vectorStore,
		config:    config,
	}
}

// IndexDirectory 索引目录中的指南文档。
func (k *KnowledgeBase) IndexDirectory(ctx context.Context, dir string) error {
	return k.indexer.IndexDirectory(ctx, dir)
}

// IndexFromURL 从 URL 下载并索引指南文档。
func (k *KnowledgeBase) IndexFromURL(ctx context.Context, url string) error {
	return k.indexer.IndexFromURL(ctx, url)
}

// Search 检索指南。
func (k *KnowledgeBase) Search(ctx context.Context, query, category string, topK int) ([]*store.SearchResult, error) {
	result, err := k.retriever.RetrieveTopK(ctx, query, category, topK)
	if err != nil {
		return nil, err
	}
	return result.Results, nil
}

// Retrieve 暴露底层检索器（供 RAG 评审使用，保留增强查询信息）。
func (k *KnowledgeBase) Retrieve(ctx context.Context, query, category string) (*RetrievalResult, error) {
	return k.retriever.Retrieve(ctx, query, category)
}

// Stats 返回知识库统计信息。
func (k *KnowledgeBase) Stats(ctx context.Context) (*Stats, error) {
	total, err := k.store.GetStats(ctx, k.config.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection stats: %w", err)
	}

	categories, err := k.store.CategoryCounts(ctx, k.config.Collection)
	if err != nil {
		logger.Warnw("failed to count categories", "error", err.Error())
		categories = map[string]int64{}
	}

	return &Stats{
		TotalChunks: total,
		Categories:  categories,
		Collection:  k.config.Collection,
		DataDir:     k.config.DataDir,
	}, nil
}

// Categories 返回知识库中的全部分类。
func (k *KnowledgeBase) Categories(ctx context.Context) ([]string, error) {
	counts, err := k.store.CategoryCounts(ctx, k.config.Collection)
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	return categories, nil
}

// Refresh 删除并重建知识库索引。
func (k *KnowledgeBase) Refresh(ctx context.Context) error {
	logger.Infow("Refreshing knowledge base", "collection", k.config.Collection)

	if err := k.store.DropCollection(ctx, k.config.Collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}

	return k.indexer.IndexDirectory(ctx, k.config.DataDir)
}

var _ Service = (*KnowledgeBase)(nil)
