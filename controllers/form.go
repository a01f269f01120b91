package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindForm 只绑定请求体中的表单字段，查询参数不参与绑定
func bindForm(c *gin.Context, obj interface{}) error {
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		return c.ShouldBindWith(obj, binding.FormMultipart)
	}
	return c.ShouldBindWith(obj, binding.FormPost)
}
