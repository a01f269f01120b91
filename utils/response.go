package utils

import (
	"github.com/gin-gonic/gin"
)

// 提示级别（对应前端的 alert 样式）
const (
	AlertDanger  = "alert-danger"
	AlertWarning = "alert-warning"
	AlertSuccess = "alert-success"
)

// 通用提示
const (
	MsgServerError = "Ha ocurrido un error en el servidor, comunícate con el personal de soporte"
	MsgListError   = "Error al obtener los libros, favor reintentar"
)

// Message 页面提示
type Message struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// Danger 输入错误
func Danger(text string) Message {
	return Message{Error: text, Type: AlertDanger}
}

// Warning 服务器错误
func Warning(text string) Message {
	return Message{Error: text, Type: AlertWarning}
}

// Success 操作成功
func Success(text string) Message {
	return Message{Error: text, Type: AlertSuccess}
}

// View 页面数据
type View gin.H

// Render 渲染页面，自动附带当前用户和布局
func Render(c *gin.Context, status int, template string, data View) {
	if data == nil {
		data = View{}
	}
	if _, ok := data["layout"]; !ok {
		data["layout"] = "main"
	}
	if user, ok := c.Get("current_user"); ok {
		data["usuario"] = user
	}
	c.HTML(status, template, gin.H(data))
}

// RenderMessages 带提示渲染页面
func RenderMessages(c *gin.Context, status int, template string, messages []Message, data View) {
	if data == nil {
		data = View{}
	}
	data["mensajes"] = messages
	Render(c, status, template, data)
}
