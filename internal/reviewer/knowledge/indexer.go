package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/docutil"
	"github.com/kart-io/reviewer-x/internal/pkg/rag/textutil"
	"github.com/kart-io/reviewer-x/internal/reviewer/metrics"
	"github.com/kart-io/reviewer-x/internal/reviewer/store"
	"github.com/kart-io/reviewer-x/pkg/llm"
)

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// ChunkSize 文本块大小。
	ChunkSize int
	// ChunkOverlap 块重叠大小。
	ChunkOverlap int
	// Collection 集合名称。
	Collection string
	// EmbeddingDim 嵌入向量维度。
	EmbeddingDim int
	// DataDir 数据存储目录。
	DataDir string
}

// Indexer 负责指南文档索引。
type Indexer struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	config        *IndexerConfig
}

// NewIndexer 创建索引器实例。
func NewIndexer(store store.VectorStore, embedProvider llm.EmbeddingProvider, config *IndexerConfig) *Indexer {
	return &Indexer{
		store:         store,
		embedProvider: embedProvider,
		config:        config,
	}
}

// IndexFromURL 从 URL 下载 zip 包并索引其中的指南文档。
func (i *Indexer) IndexFromURL(ctx context.Context, url string) error {
	logger.Infof("Downloading guidelines from: %s", url)

	if err := docutil.EnsureDir(i.config.DataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	zipPath := filepath.Join(i.config.DataDir, "guidelines.zip")
	if err := docutil.DownloadFile(ctx, url, zipPath); err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	logger.Info("Download completed")

	extractDir := filepath.Join(i.config.DataDir, "guidelines")
	if err := docutil.ExtractZip(zipPath, extractDir); err != nil {
		return fmt.Errorf("failed to extract zip: %w", err)
	}
	logger.Info("Extraction completed")

	return i.IndexDirectory(ctx, extractDir)
}

// IndexDirectory 索引目录中的所有指南文档。
// 文档的分类取相对路径的第一级目录名，标题取首个一级标题。
func (i *Indexer) IndexDirectory(ctx context.Context, dir string) error {
	logger.Infof("Indexing guidelines from: %s", dir)

	collectionConfig := &store.CollectionConfig{
		Name:        i.config.Collection,
		Description: "Code review guideline knowledge base",
		Dimension:   i.config.EmbeddingDim,
	}
	if err := i.store.CreateCollection(ctx, collectionConfig); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	logger.Info("Collection ready")

	files, err := docutil.FindFiles(dir, []string{".md", ".mdx"})
	if err != nil {
		return fmt.Errorf("failed to find files: %w", err)
	}

	logger.Infof("Found %d markdown files", len(files))

	indexed := 0
	batchSize := 10
	for idx := 0; idx < len(files); idx += batchSize {
		end := idx + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[idx:end]

		chunks, err := i.indexFiles(ctx, dir, batch)
		if err != nil {
			logger.Warnf("Failed to index batch %d-%d: %v", idx, end, err)
			metrics.GetReviewMetrics().RecordIndexing(0, 0, err)
			continue
		}
		indexed += len(batch)
		metrics.GetReviewMetrics().RecordIndexing(len(batch), chunks, nil)
		logger.Infof("Indexed batch %d-%d", idx, end)
	}

	logger.Infow("Indexing completed", "files", indexed)
	return nil
}

// indexFiles 批量索引文件，返回写入的块数。
func (i *Indexer) indexFiles(ctx context.Context, root string, files []string) (int, error) {
	var allChunks []*store.Chunk

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Warnf("Failed to read file %s: %v", file, err)
			continue
		}

		chunks := i.parseAndChunk(string(content), root, file)
		allChunks = append(allChunks, chunks...)
	}

	if len(allChunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(allChunks))
	for idx, chunk := range allChunks {
		texts[idx] = chunk.Content
	}

	embeddings, err := i.embedProvider.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	for idx, chunk := range allChunks {
		chunk.Embedding = embeddings[idx]
	}

	if _, err := i.store.Insert(ctx, i.config.Collection, allChunks); err != nil {
		return 0, err
	}
	return len(allChunks), nil
}

// parseAndChunk 解析并分割指南文档内容。
func (i *Indexer) parseAndChunk(content, root, file string) []*store.Chunk {
	var chunks []*store.Chunk

	category := categoryOf(root, file)
	title := titleOf(content, file)

	chunkIndex := 0
	for _, section := range textutil.MarkdownSections(content) {
		sectionChunks := textutil.SplitIntoChunks(section.Content, i.config.ChunkSize, i.config.ChunkOverlap)
		for _, chunkContent := range sectionChunks {
			if len(strings.TrimSpace(chunkContent)) < 20 {
				continue
			}
			chunks = append(chunks, &store.Chunk{
				ID:         textutil.HashString(file + fmt.Sprintf("#%d", chunkIndex)),
				Source:     file,
				Title:      textutil.TruncateString(title, 250),
				Category:   category,
				Section:    textutil.TruncateString(section.Heading, 250),
				ChunkIndex: chunkIndex,
				Content:    textutil.TruncateString(chunkContent, 65000),
			})
			chunkIndex++
		}
	}

	return chunks
}

// categoryOf 取文件相对根目录的第一级目录名作为分类。
// 根目录下的文件归入 general。
func categoryOf(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "general"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "general"
	}
	return parts[0]
}

// titleOf 取文档首个一级标题，缺失时退回文件名。
func titleOf(content, file string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	name := filepath.Base(file)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
