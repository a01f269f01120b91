package middleware

import (
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// maxFormMemory 解析multipart表单时的内存上限
const maxFormMemory = 32 << 20

// SanitizeValue 去除首尾空白并转义HTML字符
func SanitizeValue(value string) string {
	return html.EscapeString(strings.TrimSpace(value))
}

// Sanitize 返回清理表单字段的中间件（trim + escape）
// 处理后的值写回 Form、PostForm 和 MultipartForm，后续的绑定都能读到
func Sanitize(fields ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if err := req.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			_ = c.Error(err)
		}

		for _, field := range fields {
			// Form 同时包含查询参数，绑定时会读到
			if values, ok := req.Form[field]; ok {
				req.Form[field] = sanitizeAll(values)
			}
			if values, ok := req.PostForm[field]; ok {
				req.PostForm[field] = sanitizeAll(values)
			}
			if req.MultipartForm != nil {
				if values, ok := req.MultipartForm.Value[field]; ok {
					req.MultipartForm.Value[field] = sanitizeAll(values)
				}
			}
		}

		c.Next()
	}
}

func sanitizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = SanitizeValue(v)
	}
	return out
}
