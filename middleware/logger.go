package middleware

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// AccessLogStream 访问日志在Redis中的Stream名称
const AccessLogStream = "access_logs"

// AccessLog 访问日志结构
type AccessLog struct {
	Time       time.Time `json:"time"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Query      string    `json:"query,omitempty"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent,omitempty"`
	StatusCode int       `json:"status_code"`
	Latency    int64     `json:"latency_ms"`
	UserID     string    `json:"user_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// InitLogger 初始化日志系统
func InitLogger(mode string) (*zap.Logger, error) {
	var zapConfig zap.Config

	if mode == "debug" || mode == "" {
		// 开发环境 - 控制台输出
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		// 生产环境 - JSON格式
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	built, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	logger = built
	return logger, nil
}

// FlushLogger 刷新日志缓冲区
func FlushLogger() {
	_ = logger.Sync()
}

// AccessLogger 异步访问日志处理器
type AccessLogger struct {
	log     *zap.Logger
	rdb     *redis.Client
	queue   chan *AccessLog
	workers int
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewAccessLogger 创建访问日志处理器，rdb 可以为 nil
func NewAccessLogger(log *zap.Logger, rdb *redis.Client) *AccessLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessLogger{
		log:     log,
		rdb:     rdb,
		queue:   make(chan *AccessLog, 1000),
		workers: 3,
	}
}

// Start 启动日志处理worker池
func (al *AccessLogger) Start() {
	for i := 0; i < al.workers; i++ {
		al.wg.Add(1)
		go func() {
			defer al.wg.Done()
			for entry := range al.queue {
				al.process(entry)
			}
		}()
	}
}

// Close 停止接收日志并等待队列处理完
func (al *AccessLogger) Close() {
	al.mu.Lock()
	if !al.closed {
		al.closed = true
		close(al.queue)
	}
	al.mu.Unlock()
	al.wg.Wait()
}

// process 处理单条访问日志
func (al *AccessLogger) process(entry *AccessLog) {
	al.log.Info("access_log",
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.String("query", entry.Query),
		zap.String("ip", entry.IP),
		zap.String("user_agent", entry.UserAgent),
		zap.Int("status_code", entry.StatusCode),
		zap.Int64("latency_ms", entry.Latency),
		zap.String("user_id", entry.UserID),
		zap.String("request_id", entry.RequestID),
		zap.String("error", entry.Error),
	)

	if al.rdb == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	logData, _ := json.Marshal(entry)
	// 使用Redis Stream存储日志，只保留最近的10万条
	err := al.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: AccessLogStream,
		MaxLen: 100000,
		Values: map[string]interface{}{
			"timestamp":   entry.Time.Unix(),
			"method":      entry.Method,
			"path":        entry.Path,
			"status_code": entry.StatusCode,
			"latency_ms":  entry.Latency,
			"ip":          entry.IP,
			"user_id":     entry.UserID,
			"full_data":   string(logData),
		},
	}).Err()
	if err != nil {
		al.log.Warn("access log stream write failed", zap.Error(err))
	}
}

// enqueue 将日志放入队列，队列满或已关闭时直接丢弃
func (al *AccessLogger) enqueue(entry *AccessLog) {
	al.mu.RLock()
	defer al.mu.RUnlock()
	if al.closed {
		return
	}
	select {
	case al.queue <- entry:
	default:
		al.log.Warn("log channel is full, dropping log",
			zap.String("method", entry.Method), zap.String("path", entry.Path))
	}
}

// Logger 返回日志中间件
func Logger(al *AccessLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		entry := &AccessLog{
			Time:       start,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Query:      c.Request.URL.RawQuery,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			StatusCode: c.Writer.Status(),
			Latency:    time.Since(start).Milliseconds(),
			RequestID:  requestID,
		}
		if user, ok := CurrentUser(c.Request.Context()); ok {
			entry.UserID = strconv.FormatUint(uint64(user.ID), 10)
		}
		if len(c.Errors) > 0 {
			entry.Error = c.Errors.String()
		}

		al.enqueue(entry)
	}
}
