package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estanteria_go/config"
	"estanteria_go/models"
	"estanteria_go/repository"
	"estanteria_go/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserExists 用户名或邮箱已被使用
	ErrUserExists = errors.New("username or email already exists")
	// ErrTooManyAttempts 登录失败次数过多
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrTokenRevoked token 已注销
	ErrTokenRevoked = errors.New("token has been revoked")
)

// 页面提示
const (
	MsgUserExists         = "El usuario o el correo electrónico ya se encuentran registrados."
	MsgInvalidCredentials = "Correo electrónico o contraseña incorrectos."
	MsgTooManyAttempts    = "Demasiados intentos fallidos, intenta de nuevo más tarde."
)

// AuthConfig 认证配置
type AuthConfig struct {
	MaxLoginAttempts   int           // 最大登录失败次数
	LoginBlockDuration time.Duration // 登录封禁时长
	// IsAdminEmail 判断注册邮箱是否获得管理员角色
	IsAdminEmail func(email string) bool
}

// AuthService 认证服务
type AuthService struct {
	users      repository.UserRepository
	jwtService *config.JWTService
	rdb        *redis.Client
	authConfig *AuthConfig
	log        *zap.Logger
}

// NewAuthService 创建认证服务实例，rdb 可以为空
func NewAuthService(users repository.UserRepository, jwtService *config.JWTService, rdb *redis.Client, authConfig *AuthConfig, log *zap.Logger) *AuthService {
	if authConfig == nil {
		authConfig = &AuthConfig{}
	}
	if authConfig.MaxLoginAttempts == 0 {
		authConfig.MaxLoginAttempts = 5
	}
	if authConfig.LoginBlockDuration == 0 {
		authConfig.LoginBlockDuration = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		rdb:        rdb,
		authConfig: authConfig,
		log:        log,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `form:"username" validate:"required"`
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// RegisterMessages 注册时字段为空的提示
var RegisterMessages = utils.FieldMessages{
	"username": "El nombre de usuario no puede estar vacío.",
	"email":    "El correo electrónico no puede estar vacío.",
	"password": "La contraseña no puede estar vacía.",
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginMessages 登录时字段为空的提示
var LoginMessages = utils.FieldMessages{
	"email":    "El correo electrónico no puede estar vacío.",
	"password": "La contraseña no puede estar vacía.",
}

// TokenTTL token 有效期（用于 cookie 的 MaxAge）
func (as *AuthService) TokenTTL() time.Duration {
	return as.jwtService.Expiration()
}

// ==================== 注册相关方法 ====================

// Register 用户注册，管理员邮箱注册的账号获得管理员角色
func (as *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	exists, err := as.users.ExistsByEmailOrUsername(ctx, req.Email, req.Username, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleOrdinary
	if as.authConfig.IsAdminEmail != nil && as.authConfig.IsAdminEmail(req.Email) {
		role = models.RoleAdministrator
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := as.users.Create(ctx, user); err != nil {
		return nil, err
	}

	as.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// ==================== 登录相关方法 ====================

// Login 用户登录，返回用户和 token
func (as *AuthService) Login(ctx context.Context, req *LoginRequest) (*models.User, string, error) {
	limitKey := fmt.Sprintf("login:limit:%s", strings.ToLower(req.Email))
	if as.rdb != nil {
		attempts, err := as.rdb.Get(ctx, limitKey).Int64()
		if err == nil && attempts >= int64(as.authConfig.MaxLoginAttempts) {
			return nil, "", ErrTooManyAttempts
		}
	}

	user, err := as.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		as.recordLoginFailure(ctx, limitKey)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		as.recordLoginFailure(ctx, limitKey)
		return nil, "", ErrInvalidCredentials
	}

	if as.rdb != nil {
		as.rdb.Del(ctx, limitKey)
	}

	token, err := as.jwtService.GenerateToken(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Logout 用户登出：token 加入黑名单直到过期
func (as *AuthService) Logout(ctx context.Context, tokenString string) error {
	if as.rdb == nil || tokenString == "" {
		return nil
	}

	claims, err := as.jwtService.ValidateToken(tokenString)
	if err != nil {
		// 已失效的 token 无需加入黑名单
		return nil
	}

	expiration := time.Until(claims.ExpiresAt.Time)
	if expiration <= 0 {
		return nil
	}
	if err := as.rdb.Set(ctx, blacklistKey(tokenString), "1", expiration).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// ResolveSession 校验 token 并加载当前用户
func (as *AuthService) ResolveSession(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := as.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if as.rdb != nil {
		exists, err := as.rdb.Exists(ctx, blacklistKey(tokenString)).Result()
		if err != nil {
			as.log.Warn("blacklist check failed", zap.Error(err))
		} else if exists > 0 {
			return nil, ErrTokenRevoked
		}
	}

	return as.users.FindByID(ctx, claims.UserID)
}

// ==================== 辅助方法 ====================

// recordLoginFailure 增加失败计数
func (as *AuthService) recordLoginFailure(ctx context.Context, limitKey string) {
	if as.rdb == nil {
		return
	}
	pipe := as.rdb.TxPipeline()
	pipe.Incr(ctx, limitKey)
	pipe.Expire(ctx, limitKey, as.authConfig.LoginBlockDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		as.log.Warn("record login failure failed", zap.Error(err))
	}
}

func blacklistKey(token string) string {
	return fmt.Sprintf("token:blacklist:%s", token)
}
