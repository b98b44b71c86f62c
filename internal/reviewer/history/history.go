// Package history 将审查记录持久化到 MongoDB。
//
// 记录写入在后台执行，失败只记日志不影响审查主流程。
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/pkg/component/mongodb"
)

const (
	collectionName = "review_records"

	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// ModelStats 按模型聚合的审查统计。
type ModelStats struct {
	Model            string  `json:"model" bson:"_id"`
	Reviews          int64   `json:"reviews" bson:"reviews"`
	AvgExecutionTime float64 `json:"avg_execution_time" bson:"avg_execution_time"`
	ErrorCount       int64   `json:"error_count" bson:"error_count"`
}

// Store 审查历史存储。
type Store struct {
	collection *mongo.Collection
}

// New 创建审查历史存储。client 为 nil 时返回错误，
// 调用方可据此决定是否禁用历史记录。
func New(client *mongodb.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("mongodb 客户端未初始化")
	}
	return &Store{collection: client.Collection(collectionName)}, nil
}

// Save 写入一条审查记录。
func (s *Store) Save(ctx context.Context, record *model.ReviewRecord) error {
	if record == nil {
		return nil
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("写入审查记录失败: %w", err)
	}

	logger.Debugw("审查记录已保存", "id", record.ID, "model", record.Model)
	return nil
}

// Recent 按时间倒序返回最近的审查记录。
func (s *Store) Recent(ctx context.Context, limit int) ([]*model.ReviewRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("查询审查历史失败: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var records []*model.ReviewRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("解码审查历史失败: %w", err)
	}
	return records, nil
}

// StatsByModel 按模型聚合审查次数、平均耗时和失败次数。
func (s *Store) StatsByModel(ctx context.Context) ([]*ModelStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$model"},
			{Key: "reviews", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg_execution_time", Value: bson.D{{Key: "$avg", Value: "$execution_time"}}},
			{Key: "error_count", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$overall_rating", model.RatingError}}},
					1,
					0,
				}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "reviews", Value: -1}}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("聚合审查统计失败: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var stats []*ModelStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("解码审查统计失败: %w", err)
	}
	return stats, nil
}
