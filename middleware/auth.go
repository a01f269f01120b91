package middleware

import (
	"context"
	"net/http"

	"estanteria_go/models"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie 保存JWT的cookie名称
	SessionCookie = "token"
	// LoginPath 未登录时跳转的页面
	LoginPath = "/iniciar_sesion"
)

type userContextKey struct{}

// WithUser 把当前用户放入请求上下文
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// CurrentUser 从请求上下文获取当前用户
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*models.User)
	return user, ok && user != nil
}

// SessionResolver 根据token解析出当前用户
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware 认证中间件：校验cookie中的token，失败时跳转到登录页
func AuthMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		user, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user))
		c.Set("user_id", user.ID)
		c.Set("current_user", user)
		c.Next()
	}
}

// AdminGate 管理员检查：管理员直接渲染管理首页并结束处理链，其他用户继续
func AdminGate(adminHome gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c.Request.Context())
		if ok && user.IsAdmin() {
			adminHome(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 只允许管理员访问，其他用户跳转到首页
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c.Request.Context())
		if !ok || !user.IsAdmin() {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
