package controllers

import (
	"errors"
	"net/http"

	"estanteria_go/middleware"
	"estanteria_go/services"
	"estanteria_go/utils"

	"github.com/gin-gonic/gin"
)

// UserController 用户控制器
type UserController struct {
	userService *services.UserService
}

// NewUserController 创建用户控制器实例
func NewUserController(userService *services.UserService) *UserController {
	return &UserController{userService: userService}
}

// Profile 查看个人资料
func (uc *UserController) Profile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c.Request.Context())
	utils.Render(c, http.StatusOK, "ver_usuario", utils.View{"perfil": user})
}

// UpdateProfile 更新个人资料
func (uc *UserController) UpdateProfile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c.Request.Context())

	var req services.UpdateProfileRequest
	if err := bindForm(c, &req); err != nil {
		uc.renderProfile(c, http.StatusOK, user, utils.Danger(err.Error()))
		return
	}
	if messages := utils.ValidateRequired(&req, services.UpdateProfileMessages); len(messages) > 0 {
		utils.RenderMessages(c, http.StatusOK, "ver_usuario", messages, utils.View{"perfil": user})
		return
	}

	updated, err := uc.userService.UpdateProfile(c.Request.Context(), user, &req)
	switch {
	case err == nil:
		uc.renderProfile(c, http.StatusOK, updated, utils.Success(services.MsgProfileUpdated))
	case errors.Is(err, services.ErrUserExists):
		uc.renderProfile(c, http.StatusOK, user, utils.Danger(services.MsgUserExists))
	default:
		_ = c.Error(err)
		uc.renderProfile(c, http.StatusInternalServerError, user, utils.Warning(utils.MsgServerError))
	}
}

// ListUsers 用户列表（管理员）
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.userService.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		utils.RenderMessages(c, http.StatusInternalServerError, "control_usuarios",
			[]utils.Message{utils.Warning(utils.MsgServerError)}, nil)
		return
	}
	utils.Render(c, http.StatusOK, "control_usuarios", utils.View{"usuarios": users})
}

func (uc *UserController) renderProfile(c *gin.Context, status int, perfil interface{}, message utils.Message) {
	utils.RenderMessages(c, status, "ver_usuario", []utils.Message{message}, utils.View{"perfil": perfil})
}
