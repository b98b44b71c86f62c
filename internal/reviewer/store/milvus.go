package store

import (
	"context"
	"fmt"

	"github.com/kart-io/reviewer-x/pkg/component/milvus"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// CreateCollection 创建 Milvus 集合。
func (s *MilvusStore) CreateCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "title", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "category", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "section", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	return s.client.CreateCollection(ctx, schema)
}

// Insert 批量插入文档块到 Milvus。
func (s *MilvusStore) Insert(ctx context.Context, collection string, chunks []*Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(chunks))
	metadata := map[string][]any{
		"source":      make([]any, len(chunks)),
		"title":       make([]any, len(chunks)),
		"category":    make([]any, len(chunks)),
		"section":     make([]any, len(chunks)),
		"chunk_index": make([]any, len(chunks)),
		"content":     make([]any, len(chunks)),
	}

	for i, chunk := range chunks {
		embeddings[i] = chunk.Embedding
		metadata["source"][i] = chunk.Source
		metadata["title"][i] = chunk.Title
		metadata["category"][i] = chunk.Category
		metadata["section"][i] = chunk.Section
		metadata["chunk_index"][i] = int64(chunk.ChunkIndex)
		metadata["content"][i] = chunk.Content
	}

	data := &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}

	ids, err := s.client.Insert(ctx, collection, data)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into milvus: %w", err)
	}

	// 将 int64 ID 转换为 string
	stringIDs := make([]string, len(ids))
	for i, id := range ids {
		stringIDs[i] = fmt.Sprintf("%d", id)
	}

	return stringIDs, nil
}

var chunkOutputFields = []string{"source", "title", "category", "section", "content"}

// Search 执行向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	results, err := s.client.Search(ctx, collection, embedding, topK, chunkOutputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = &SearchResult{
			ID:       fmt.Sprintf("%d", r.ID),
			Source:   stringField(r.Metadata, "source"),
			Title:    stringField(r.Metadata, "title"),
			Category: stringField(r.Metadata, "category"),
			Section:  stringField(r.Metadata, "section"),
			Content:  stringField(r.Metadata, "content"),
			Score:    r.Score,
		}
	}

	return searchResults, nil
}

// SearchByCategory 执行限定分类的向量相似度搜索。
// 内部使用 Milvus 过滤表达式 category == "<category>"。
func (s *MilvusStore) SearchByCategory(ctx context.Context, collection string, embedding []float32, category string, topK int) ([]*SearchResult, error) {
	rawClient := s.client.RawClient()
	if rawClient == nil {
		return nil, fmt.Errorf("milvus client not initialized")
	}

	// 确保集合已加载
	loadTask, err := rawClient.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for collection loading: %w", err)
	}

	searchVectors := []entity.Vector{entity.FloatVector(embedding)}

	expr := fmt.Sprintf("category == %q", category)
	results, err := rawClient.Search(ctx, milvusclient.NewSearchOption(
		collection,
		topK,
		searchVectors,
	).WithANNSField("embedding").
		WithSearchParam("ef", "64").
		WithFilter(expr).
		WithOutputFields(chunkOutputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search with category filter: %w", err)
	}

	if len(results) == 0 {
		return []*SearchResult{}, nil
	}

	searchResults := make([]*SearchResult, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		result := &SearchResult{
			Score: results[0].Scores[i],
		}

		for _, field := range results[0].Fields {
			col, ok := field.(*column.ColumnVarChar)
			if !ok {
				continue
			}
			switch col.Name() {
			case "source":
				result.Source = col.Data()[i]
			case "title":
				result.Title = col.Data()[i]
			case "category":
				result.Category = col.Data()[i]
			case "section":
				result.Section = col.Data()[i]
			case "content":
				result.Content = col.Data()[i]
			}
		}

		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}

// GetStats 获取集合统计信息。
func (s *MilvusStore) GetStats(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// CategoryCounts 查询全部分类字段并在内存中聚合计数。
// 知识库规模有限，直接拉取 category 列即可。
func (s *MilvusStore) CategoryCounts(ctx context.Context, collection string) (map[string]int64, error) {
	rawClient := s.client.RawClient()
	if rawClient == nil {
		return nil, fmt.Errorf("milvus client not initialized")
	}

	loadTask, err := rawClient.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for collection loading: %w", err)
	}

	resultSet, err := rawClient.Query(ctx, milvusclient.NewQueryOption(collection).
		WithFilter("id >= 0").
		WithOutputFields("category").
		WithLimit(16384))
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	counts := make(map[string]int64)
	col := resultSet.GetColumn("category")
	if col == nil {
		return counts, nil
	}
	varcharCol, ok := col.(*column.ColumnVarChar)
	if !ok {
		return counts, nil
	}
	for _, category := range varcharCol.Data() {
		counts[category]++
	}

	return counts, nil
}

// DropCollection 删除集合。
func (s *MilvusStore) DropCollection(ctx context.Context, collection string) error {
	return s.client.DropCollection(ctx, collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func stringField(metadata map[string]any, name string) string {
	if v, ok := metadata[name].(string); ok {
		return v
	}
	return ""
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)
