package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/reviewer-x/internal/model"
	"github.com/kart-io/reviewer-x/internal/reviewer/registry"
	"github.com/kart-io/reviewer-x/pkg/infra/pool"
)

// Comparator 多模型并发对比器。
type Comparator struct {
	registry *registry.Registry
	reviewer *Reviewer
}

// NewComparator 创建多模型对比器。
func NewComparator(reg *registry.Registry, reviewer *Reviewer) *Comparator {
	return &Comparator{
		registry: reg,
		reviewer: reviewer,
	}
}

// CompareModels 用所有可用模型并发审查同一段代码。
// 单个模型失败不影响其余模型，失败项以错误形态结果呈现。
func (c *Comparator) CompareModels(ctx context.Context, code, language, technique string) (*model.ComparisonResult, error) {
	available := c.registry.Available(ctx)
	if len(available) == 0 {
		return nil, fmt.Errorf("没有可用的模型")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]*model.ReviewResult, len(available))
	)

	for _, mc := range available {
		mc := mc
		wg.Add(1)
		task := func() {
			defer wg.Done()
			result, err := c.reviewer.Review(ctx, code, language, technique, mc.Name)
			if err != nil {
				result = &model.ReviewResult{
					Issues:        []string{fmt.Sprintf("Error: %v", err)},
					Suggestions:   []string{"Check model configuration"},
					OverallRating: model.RatingError,
					Reasoning:     err.Error(),
					ModelUsed:     mc.Name,
					Provider:      mc.Provider,
					Technique:     technique,
					Error:         err.Error(),
				}
			}
			mu.Lock()
			results[mc.Name] = result
			mu.Unlock()
		}

		// 提交到对比池，降级处理：池不可用时直接用 goroutine
		if err := pool.SubmitToType(pool.ComparePool, task); err != nil {
			logger.Warnw("协程池不可用，降级到 goroutine", "error", err.Error())
			go task()
		}
	}

	wg.Wait()

	return &model.ComparisonResult{
		Code:         code,
		Results:      results,
		FastestModel: fastestModel(results),
		Technique:    technique,
		ComparedAt:   time.Now(),
	}, nil
}

// fastestModel 返回成功结果中耗时最短的模型名。
func fastestModel(results map[string]*model.ReviewResult) string {
	var fastest string
	var best float64
	for name, result := range results {
		if result.IsError() {
			continue
		}
		if fastest == "" || result.ExecutionTime < best {
			fastest = name
			best = result.ExecutionTime
		}
	}
	return fastest
}
