package response

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/reviewer-x/pkg/utils/validator"
)

// DetectLang 返回请求的语言偏好，用于本地化错误消息。
// 优先级：lang 查询参数 > Accept-Language 头 > 英文。
func DetectLang(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		return lang
	}

	// Accept-Language 格式: zh-CN,zh;q=0.9,en;q=0.8
	if acceptLang := c.GetHeader("Accept-Language"); acceptLang != "" {
		parts := strings.Split(acceptLang, ",")
		if len(parts) > 0 {
			lang := strings.TrimSpace(strings.Split(parts[0], ";")[0])
			if strings.HasPrefix(lang, "zh") {
				return validator.LangZH
			}
			if strings.HasPrefix(lang, "en") {
				return validator.LangEN
			}
		}
	}

	return validator.LangEN
}

// NewWriterFor 创建绑定请求语言与 RequestID 的 Writer。
func NewWriterFor(c *gin.Context) *Writer {
	w := NewWriter(c).WithLang(DetectLang(c))
	if requestID := c.GetString("request_id"); requestID != "" {
		w = w.WithRequestID(requestID)
	}
	return w
}
