package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// 市场模式
const (
	// ModeStrict 保持原有行为：更新不校验所有者，购买无条件删除
	ModeStrict = "strict"
	// ModeHardened 更新校验所有者，购买校验存在性并禁止购买自己的书
	ModeHardened = "hardened"
)

// Config 应用配置
type Config struct {
	Server   *ServerConfig
	Database *DatabaseConfig
	Redis    *RedisConfig
	JWT      *JWTConfig
	Storage  *StorageConfig
	// AdminEmails 使用这些邮箱注册的账号获得管理员角色
	AdminEmails []string
}

// StorageConfig 封面图片存储配置
type StorageConfig struct {
	Driver         string // local 或 minio
	UploadPath     string
	MaxFileSize    int64
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// Load 从环境变量加载全部配置
func Load() *Config {
	return &Config{
		Server:      GetServerConfig(),
		Database:    GetDatabaseConfig(),
		Redis:       GetRedisConfig(),
		JWT:         GetJWTConfig(),
		Storage:     GetStorageConfig(),
		AdminEmails: GetEnvList("ADMIN_EMAILS", nil),
	}
}

// GetStorageConfig 获取存储配置
func GetStorageConfig() *StorageConfig {
	return &StorageConfig{
		Driver:         GetEnv("STORAGE_DRIVER", "local"),
		UploadPath:     GetEnv("UPLOAD_PATH", "./uploads"),
		MaxFileSize:    int64(GetEnvInt("UPLOAD_MAX_BYTES", 10*1024*1024)),
		MinioEndpoint:  GetEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: GetEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: GetEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    GetEnv("MINIO_BUCKET", "portadas"),
		MinioUseSSL:    GetEnvBool("MINIO_USE_SSL", false),
	}
}

// IsAdminEmail 判断邮箱是否在管理员列表中
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// GetEnv 获取环境变量，如果不存在则返回默认值
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt 获取环境变量（整型）
func GetEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvBool 获取环境变量（布尔型）
func GetEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// GetEnvDuration 获取环境变量（时长，例如 "168h"）
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvList 获取逗号分隔的环境变量
func GetEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
