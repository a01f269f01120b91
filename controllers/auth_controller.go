package controllers

import (
	"errors"
	"net/http"

	"estanteria_go/middleware"
	"estanteria_go/services"
	"estanteria_go/utils"

	"github.com/gin-gonic/gin"
)

// AuthController 认证控制器
type AuthController struct {
	authService  *services.AuthService
	secureCookie bool
}

// NewAuthController 创建认证控制器实例
func NewAuthController(authService *services.AuthService, secureCookie bool) *AuthController {
	return &AuthController{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

// RegisterForm 注册页面
func (ac *AuthController) RegisterForm(c *gin.Context) {
	utils.Render(c, http.StatusOK, "registrate", utils.View{"layout": "auth"})
}

// Register 用户注册，成功后跳转到登录页
func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := bindForm(c, &req); err != nil {
		ac.renderForm(c, http.StatusOK, "registrate", utils.Danger(err.Error()))
		return
	}
	if messages := utils.ValidateRequired(&req, services.RegisterMessages); len(messages) > 0 {
		utils.RenderMessages(c, http.StatusOK, "registrate", messages, utils.View{"layout": "auth"})
		return
	}

	_, err := ac.authService.Register(c.Request.Context(), &req)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, middleware.LoginPath)
	case errors.Is(err, services.ErrUserExists):
		ac.renderForm(c, http.StatusOK, "registrate", utils.Danger(services.MsgUserExists))
	default:
		_ = c.Error(err)
		ac.renderForm(c, http.StatusInternalServerError, "registrate", utils.Warning(utils.MsgServerError))
	}
}

// LoginForm 登录页面
func (ac *AuthController) LoginForm(c *gin.Context) {
	utils.Render(c, http.StatusOK, "iniciar_sesion", utils.View{"layout": "auth"})
}

// Login 用户登录，token 写入 cookie
func (ac *AuthController) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := bindForm(c, &req); err != nil {
		ac.renderForm(c, http.StatusOK, "iniciar_sesion", utils.Danger(err.Error()))
		return
	}
	if messages := utils.ValidateRequired(&req, services.LoginMessages); len(messages) > 0 {
		utils.RenderMessages(c, http.StatusOK, "iniciar_sesion", messages, utils.View{"layout": "auth"})
		return
	}

	_, token, err := ac.authService.Login(c.Request.Context(), &req)
	switch {
	case err == nil:
		maxAge := int(ac.authService.TokenTTL().Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", ac.secureCookie, true)
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, services.ErrInvalidCredentials):
		ac.renderForm(c, http.StatusOK, "iniciar_sesion", utils.Danger(services.MsgInvalidCredentials))
	case errors.Is(err, services.ErrTooManyAttempts):
		ac.renderForm(c, http.StatusTooManyRequests, "iniciar_sesion", utils.Danger(services.MsgTooManyAttempts))
	default:
		_ = c.Error(err)
		ac.renderForm(c, http.StatusInternalServerError, "iniciar_sesion", utils.Warning(utils.MsgServerError))
	}
}

// Logout 用户登出：注销 token 并清除 cookie
func (ac *AuthController) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if err := ac.authService.Logout(c.Request.Context(), token); err != nil {
			_ = c.Error(err)
		}
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", ac.secureCookie, true)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

func (ac *AuthController) renderForm(c *gin.Context, status int, template string, message utils.Message) {
	utils.RenderMessages(c, status, template, []utils.Message{message}, utils.View{"layout": "auth"})
}
