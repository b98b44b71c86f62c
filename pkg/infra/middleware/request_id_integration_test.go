package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	mwopts "github.com/kart-io/reviewer-x/pkg/options/middleware"
)

func newRequestIDEngine(opts mwopts.RequestIDOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestIDWithOptions(opts, nil))
	engine.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return engine
}

// TestRequestIDWithOptions_ULIDGenerator 测试使用 ULID 生成器的配置
func TestRequestIDWithOptions_ULIDGenerator(t *testing.T) {
	engine := newRequestIDEngine(mwopts.RequestIDOptions{
		Header:        "X-Request-ID",
		GeneratorType: "ulid",
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	// 验证响应头包含 request ID
	requestID := w.Header().Get("X-Request-ID")
	if requestID == "" {
		t.Error("Request ID should be set in response header")
	}

	// 验证 ULID 长度 (26 字符)
	if len(requestID) != 26 {
		t.Errorf("ULID should be 26 characters, got %d: %s", len(requestID), requestID)
	}
}

// TestRequestIDWithOptions_RandomHexGenerator 测试使用随机十六进制生成器的配置
func TestRequestIDWithOptions_RandomHexGenerator(t *testing.T) {
	tests := []struct {
		name          string
		generatorType string
		expectedLen   int
	}{
		{"Random 类型", "random", 32},
		{"Hex 类型", "hex", 32},
		{"空字符串(默认)", "", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newRequestIDEngine(mwopts.RequestIDOptions{
				Header:        "X-Request-ID",
				GeneratorType: tt.generatorType,
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			requestID := w.Header().Get("X-Request-ID")
			if requestID == "" {
				t.Error("Request ID should be set in response header")
			}

			if len(requestID) != tt.expectedLen {
				t.Errorf("Expected length %d, got %d: %s", tt.expectedLen, len(requestID), requestID)
			}
		})
	}
}

// TestRequestIDWithOptions_ExistingHeader 测试透传已有的 request ID
func TestRequestIDWithOptions_ExistingHeader(t *testing.T) {
	engine := newRequestIDEngine(mwopts.RequestIDOptions{
		Header:        "X-Request-ID",
		GeneratorType: "ulid",
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "upstream-id-123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-id-123" {
		t.Errorf("Expected upstream request ID to be preserved, got %s", got)
	}
}

// TestRequestIDWithOptions_GeneratorUniqueness 验证生成的 ID 唯一
func TestRequestIDWithOptions_GeneratorUniqueness(t *testing.T) {
	tests := []struct {
		name          string
		generatorType string
	}{
		{"Random", "random"},
		{"ULID", "ulid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newRequestIDEngine(mwopts.RequestIDOptions{
				Header:        "X-Request-ID",
				GeneratorType: tt.generatorType,
			})

			seen := make(map[string]bool)
			for i := 0; i < 1000; i++ {
				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				w := httptest.NewRecorder()
				engine.ServeHTTP(w, req)

				requestID := w.Header().Get("X-Request-ID")
				if seen[requestID] {
					t.Errorf("Duplicate request ID found: %s", requestID)
				}
				seen[requestID] = true
			}
		})
	}
}

// TestRequestIDWithOptions_ULIDSortability 测试 ULID 的时间可排序性
func TestRequestIDWithOptions_ULIDSortability(t *testing.T) {
	engine := newRequestIDEngine(mwopts.RequestIDOptions{
		Header:        "X-Request-ID",
		GeneratorType: "ulid",
	})

	var ids []string
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		ids = append(ids, w.Header().Get("X-Request-ID"))
	}

	// 验证 ID 是递增的 (词典序)
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("ULID 应该是递增的,但 ids[%d](%s) <= ids[%d](%s)",
				i, ids[i], i-1, ids[i-1])
		}
	}
}

// TestRequestIDOptions_Validation 测试配置验证
func TestRequestIDOptions_Validation(t *testing.T) {
	tests := []struct {
		name      string
		opts      mwopts.RequestIDOptions
		wantError bool
	}{
		{
			name: "有效配置 - ULID",
			opts: mwopts.RequestIDOptions{
				Header:        "X-Request-ID",
				GeneratorType: "ulid",
			},
			wantError: false,
		},
		{
			name: "有效配置 - Random",
			opts: mwopts.RequestIDOptions{
				Header:        "X-Request-ID",
				GeneratorType: "random",
			},
			wantError: false,
		},
		{
			name: "无效配置 - 空 Header",
			opts: mwopts.RequestIDOptions{
				Header:        "",
				GeneratorType: "ulid",
			},
			wantError: true,
		},
		{
			name: "无效配置 - 未知生成器类型",
			opts: mwopts.RequestIDOptions{
				Header:        "X-Request-ID",
				GeneratorType: "unknown",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.opts.Validate()
			hasError := len(errs) > 0

			if hasError != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v, errors: %v", hasError, tt.wantError, errs)
			}
		})
	}
}
