package controllers

import (
	"net/http"

	"estanteria_go/middleware"
	"estanteria_go/services"
	"estanteria_go/utils"

	"github.com/gin-gonic/gin"
)

// CommentController 评论控制器
type CommentController struct {
	commentService *services.CommentService
}

// NewCommentController 创建评论控制器实例
func NewCommentController(commentService *services.CommentService) *CommentController {
	return &CommentController{commentService: commentService}
}

// List 评论列表
func (cc *CommentController) List(c *gin.Context) {
	cc.render(c, http.StatusOK, nil)
}

// Create 发表评论，之后回到评论列表
func (cc *CommentController) Create(c *gin.Context) {
	var req services.CreateCommentRequest
	if err := bindForm(c, &req); err != nil {
		cc.render(c, http.StatusOK, []utils.Message{utils.Danger(err.Error())})
		return
	}
	if messages := utils.ValidateRequired(&req, services.CreateCommentMessages); len(messages) > 0 {
		cc.render(c, http.StatusOK, messages)
		return
	}

	user, _ := middleware.CurrentUser(c.Request.Context())
	if _, err := cc.commentService.Create(c.Request.Context(), user, &req); err != nil {
		_ = c.Error(err)
		cc.render(c, http.StatusInternalServerError, []utils.Message{utils.Warning(utils.MsgServerError)})
		return
	}
	c.Redirect(http.StatusFound, "/home_comentarios")
}

// render 评论页总是附带当前列表
func (cc *CommentController) render(c *gin.Context, status int, messages []utils.Message) {
	comentarios, err := cc.commentService.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		status = http.StatusInternalServerError
		messages = append(messages, utils.Warning(utils.MsgServerError))
		comentarios = []services.CommentListing{}
	}
	utils.RenderMessages(c, status, "home_comentarios", messages, utils.View{"comentarios": comentarios})
}
