package config

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ServerConfig 服务器配置结构
type ServerConfig struct {
	Port         string
	Mode         string
	MarketMode   string
	SecureCookie bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins []string
}

// GetServerConfig 获取服务器配置
func GetServerConfig() *ServerConfig {
	marketMode := GetEnv("MARKET_MODE", ModeStrict)
	if marketMode != ModeHardened {
		marketMode = ModeStrict
	}

	return &ServerConfig{
		Port:         GetEnv("SERVER_PORT", "8080"),
		Mode:         GetEnv("GIN_MODE", "debug"),
		MarketMode:   marketMode,
		SecureCookie: GetEnvBool("COOKIE_SECURE", false),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		AllowOrigins: GetEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}
}

// SetupRouter 设置基础路由：恢复、健康检查
func SetupRouter(serverConfig *ServerConfig, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	// 根据环境设置Gin模式
	gin.SetMode(serverConfig.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery()) // 恢复panic

	// 健康检查端点（包括数据库和Redis状态）
	r.GET("/health", func(c *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"message": "Server is running",
		}

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				if err := sqlDB.PingContext(c.Request.Context()); err == nil {
					health["database"] = "connected"
				} else {
					health["database"] = "disconnected"
				}
			} else {
				health["database"] = "error"
			}
		} else {
			health["database"] = "not initialized"
		}

		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err == nil {
				health["redis"] = "connected"
			} else {
				health["redis"] = "disconnected"
			}
		} else {
			health["redis"] = "not initialized"
		}

		c.JSON(200, health)
	})

	return r
}
