package errors

import "google.golang.org/grpc/codes"

// 审查服务代码: 21 (业务服务范围 20-79)
// 错误码格式: AABBCCC
// - AA: 21 (代码审查服务)
// - BB: 类别代码
// - CCC: 序号

const (
	// ServiceReview is for the code review service.
	ServiceReview = 21
)

func init() {
	RegisterService(ServiceReview, "reviewer")
}

var (
	// 请求参数错误 (类别 01)
	ErrReviewInvalidRequest = NewRequestErr(ServiceReview, 1, "Invalid request parameters", "请求参数无效")
	ErrReviewEmptyCode      = NewRequestErr(ServiceReview, 2, "Code must not be empty", "代码不能为空")
	ErrReviewBadTechnique   = NewRequestErr(ServiceReview, 3, "Unknown prompting technique", "未知的提示技术")

	// 模型相关错误。ErrReviewNoModels 返回 503 而非 404,
	// 模型不可用是部署问题而不是资源缺失,标准的 NotFound 帮助函数不适用。
	ErrReviewNoModels        = Register(New(MakeCode(ServiceReview, CategoryResource, 1), 503, codes.Unavailable, "No AI models available", "没有可用的 AI 模型"))
	ErrReviewModelNotFound   = Register(New(MakeCode(ServiceReview, CategoryResource, 2), 400, codes.NotFound, "Requested model not available", "请求的模型不可用"))
	ErrReviewFileNotFound    = NewNotFoundErr(ServiceReview, 3, "Example file not found", "示例文件不存在")
	ErrReviewHistoryDisabled = Register(New(MakeCode(ServiceReview, CategoryResource, 4), 503, codes.FailedPrecondition, "Review history is not enabled", "审查历史未启用"))
	ErrReviewKBEmpty         = NewNotFoundErr(ServiceReview, 5, "Knowledge base is empty", "知识库为空")

	// 执行相关错误。超时按客户端等待语义返回 408 而不是网关语义的 504。
	ErrReviewTimeout      = Register(New(MakeCode(ServiceReview, CategoryTimeout, 1), 408, codes.DeadlineExceeded, "Review timed out", "审查超时"))
	ErrReviewFailed       = NewInternalErr(ServiceReview, 1, "Review failed", "审查失败")
	ErrReviewParseFailed  = NewInternalErr(ServiceReview, 2, "Failed to parse model response", "模型响应解析失败")
	ErrReviewAgentFailed  = NewInternalErr(ServiceReview, 3, "Agent review failed", "Agent 审查失败")
	ErrReviewIndexFailed  = NewInternalErr(ServiceReview, 4, "Guideline indexing failed", "审查准则索引失败")
	ErrReviewCacheFailure = NewInternalErr(ServiceReview, 5, "Review cache operation failed", "审查缓存操作失败")
	ErrReviewLLMUpstream  = Register(New(MakeCode(ServiceReview, CategoryNetwork, 1), 502, codes.Unavailable, "LLM provider request failed", "LLM 供应商请求失败"))
)
