package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(New(0, http.StatusOK, codes.OK, "Success", "成功"))

// Request errors (Category: 01).
var (
	ErrBadRequest           = Register(New(MakeCode(ServiceCommon, CategoryRequest, 0), 400, codes.InvalidArgument, "Bad request", "请求错误"))
	ErrInvalidParam         = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid parameter", "参数无效"))
	ErrMissingParam         = Register(New(MakeCode(ServiceCommon, CategoryRequest, 2), 400, codes.InvalidArgument, "Missing required parameter", "缺少必需参数"))
	ErrInvalidFormat        = Register(New(MakeCode(ServiceCommon, CategoryRequest, 3), 400, codes.InvalidArgument, "Invalid format", "格式无效"))
	ErrValidationFailed     = Register(New(MakeCode(ServiceCommon, CategoryRequest, 4), 400, codes.InvalidArgument, "Validation failed", "校验失败"))
	ErrRequestTooLarge      = Register(New(MakeCode(ServiceCommon, CategoryRequest, 5), 413, codes.InvalidArgument, "Request entity too large", "请求体过大"))
	ErrUnsupportedMediaType = Register(New(MakeCode(ServiceCommon, CategoryRequest, 6), 415, codes.InvalidArgument, "Unsupported media type", "不支持的媒体类型"))
)

// Authentication errors (Category: 02).
var (
	ErrUnauthorized       = Register(New(MakeCode(ServiceCommon, CategoryAuth, 0), 401, codes.Unauthenticated, "Unauthorized", "未认证"))
	ErrInvalidToken       = Register(New(MakeCode(ServiceCommon, CategoryAuth, 1), 401, codes.Unauthenticated, "Invalid token", "令牌无效"))
	ErrTokenExpired       = Register(New(MakeCode(ServiceCommon, CategoryAuth, 2), 401, codes.Unauthenticated, "Token expired", "令牌已过期"))
	ErrInvalidCredentials = Register(New(MakeCode(ServiceCommon, CategoryAuth, 3), 401, codes.Unauthenticated, "Invalid credentials", "凭证无效"))
	ErrTokenRevoked       = Register(New(MakeCode(ServiceCommon, CategoryAuth, 4), 401, codes.Unauthenticated, "Token revoked", "令牌已吊销"))
	ErrSessionExpired     = Register(New(MakeCode(ServiceCommon, CategoryAuth, 5), 401, codes.Unauthenticated, "Session expired", "会话已过期"))
)

// Authorization errors (Category: 03).
var (
	ErrForbidden       = Register(New(MakeCode(ServiceCommon, CategoryPermission, 0), 403, codes.PermissionDenied, "Forbidden", "禁止访问"))
	ErrNoPermission    = Register(New(MakeCode(ServiceCommon, CategoryPermission, 1), 403, codes.PermissionDenied, "No permission", "无权限"))
	ErrResourceLocked  = Register(New(MakeCode(ServiceCommon, CategoryPermission, 2), 423, codes.PermissionDenied, "Resource locked", "资源已锁定"))
	ErrAccountDisabled = Register(New(MakeCode(ServiceCommon, CategoryPermission, 3), 403, codes.PermissionDenied, "Account disabled", "账号已禁用"))
	ErrIPBlocked       = Register(New(MakeCode(ServiceCommon, CategoryPermission, 4), 403, codes.PermissionDenied, "IP blocked", "IP 已封禁"))
)

// Resource errors (Category: 04).
var (
	ErrNotFound       = Register(New(MakeCode(ServiceCommon, CategoryResource, 0), 404, codes.NotFound, "Resource not found", "资源不存在"))
	ErrUserNotFound   = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), 404, codes.NotFound, "User not found", "用户不存在"))
	ErrRecordNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 2), 404, codes.NotFound, "Record not found", "记录不存在"))
	ErrFileNotFound   = Register(New(MakeCode(ServiceCommon, CategoryResource, 3), 404, codes.NotFound, "File not found", "文件不存在"))
	ErrRouteNotFound  = Register(New(MakeCode(ServiceCommon, CategoryResource, 4), 404, codes.NotFound, "Route not found", "路由不存在"))
)

// Conflict errors (Category: 05).
var (
	ErrConflict        = Register(New(MakeCode(ServiceCommon, CategoryConflict, 0), 409, codes.AlreadyExists, "Resource conflict", "资源冲突"))
	ErrAlreadyExists   = Register(New(MakeCode(ServiceCommon, CategoryConflict, 1), 409, codes.AlreadyExists, "Resource already exists", "资源已存在"))
	ErrDuplicateKey    = Register(New(MakeCode(ServiceCommon, CategoryConflict, 2), 409, codes.AlreadyExists, "Duplicate key", "键重复"))
	ErrVersionConflict = Register(New(MakeCode(ServiceCommon, CategoryConflict, 3), 409, codes.AlreadyExists, "Version conflict", "版本冲突"))
)

// Rate limiting errors (Category: 06).
var (
	ErrTooManyRequests   = Register(New(MakeCode(ServiceCommon, CategoryRateLimit, 0), 429, codes.ResourceExhausted, "Too many requests", "请求过多"))
	ErrRateLimitExceeded = Register(New(MakeCode(ServiceCommon, CategoryRateLimit, 1), 429, codes.ResourceExhausted, "Rate limit exceeded", "超出限流阈值"))
	ErrQuotaExceeded     = Register(New(MakeCode(ServiceCommon, CategoryRateLimit, 2), 429, codes.ResourceExhausted, "Quota exceeded", "超出配额"))
)

// Internal errors (Category: 07).
var (
	ErrInternal       = Register(New(MakeCode(ServiceCommon, CategoryInternal, 0), 500, codes.Internal, "Internal server error", "服务器内部错误"))
	ErrUnknown        = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), 500, codes.Unknown, "Unknown error", "未知错误"))
	ErrPanic          = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2), 500, codes.Internal, "Service panic", "服务异常"))
	ErrNotImplemented = Register(New(MakeCode(ServiceCommon, CategoryInternal, 3), 501, codes.Unimplemented, "Not implemented", "未实现"))
)

// Database errors (Category: 08).
var (
	ErrDatabase      = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 0), 500, codes.Internal, "Database error", "数据库错误"))
	ErrDBConnection  = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 1), 500, codes.Unavailable, "Database connection failed", "数据库连接失败"))
	ErrDBQuery       = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 2), 500, codes.Internal, "Database query failed", "数据库查询失败"))
	ErrDBTransaction = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 3), 500, codes.Internal, "Database transaction failed", "数据库事务失败"))
	ErrDBDeadlock    = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 4), 500, codes.Internal, "Database deadlock", "数据库死锁"))
)

// Cache errors (Category: 09).
var (
	ErrCache           = Register(New(MakeCode(ServiceCommon, CategoryCache, 0), 500, codes.Internal, "Cache error", "缓存错误"))
	ErrCacheConnection = Register(New(MakeCode(ServiceCommon, CategoryCache, 1), 500, codes.Unavailable, "Cache connection failed", "缓存连接失败"))
	ErrCacheMiss       = Register(New(MakeCode(ServiceCommon, CategoryCache, 2), 500, codes.NotFound, "Cache miss", "缓存未命中"))
	ErrCacheExpired    = Register(New(MakeCode(ServiceCommon, CategoryCache, 3), 500, codes.NotFound, "Cache expired", "缓存已过期"))
)

// Network errors (Category: 10).
var (
	ErrNetwork            = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 0), 502, codes.Unavailable, "Network error", "网络错误"))
	ErrServiceUnavailable = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 1), 503, codes.Unavailable, "Service unavailable", "服务不可用"))
	ErrConnectionRefused  = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 2), 502, codes.Unavailable, "Connection refused", "连接被拒绝"))
	ErrDNSResolution      = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 3), 502, codes.Unavailable, "DNS resolution failed", "DNS 解析失败"))
)

// Timeout errors (Category: 11).
var (
	ErrTimeout        = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 0), 504, codes.DeadlineExceeded, "Operation timeout", "操作超时"))
	ErrRequestTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), 408, codes.DeadlineExceeded, "Request timeout", "请求超时"))
	ErrGatewayTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 2), 504, codes.DeadlineExceeded, "Gateway timeout", "网关超时"))
	// 499 Client Closed Request
	ErrContextCanceled = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 3), 499, codes.Canceled, "Context canceled", "上下文已取消"))
)

// Configuration errors (Category: 12).
var (
	ErrConfig         = Register(New(MakeCode(ServiceCommon, CategoryConfig, 0), 500, codes.Internal, "Configuration error", "配置错误"))
	ErrConfigNotFound = Register(New(MakeCode(ServiceCommon, CategoryConfig, 1), 500, codes.Internal, "Configuration not found", "配置不存在"))
	ErrConfigInvalid  = Register(New(MakeCode(ServiceCommon, CategoryConfig, 2), 500, codes.Internal, "Invalid configuration", "配置无效"))
)
