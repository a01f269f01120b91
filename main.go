package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estanteria_go/config"
	"estanteria_go/controllers"
	"estanteria_go/middleware"
	"estanteria_go/repository"
	"estanteria_go/routes"
	"estanteria_go/services"
	"estanteria_go/storage"
	"estanteria_go/views"
	"estanteria_go/websocket"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	// 初始化日志系统
	logger, err := middleware.InitLogger(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer middleware.FlushLogger()

	// 初始化数据库
	db, err := config.OpenDatabase(cfg.Database, cfg.Server.Mode, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer config.CloseDatabase(db)

	// 初始化Redis（可选）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = config.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and notifications", zap.Error(err))
			rdb = nil
		} else {
			defer config.CloseRedis(rdb)
		}
	}

	images, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize image storage", zap.Error(err))
	}

	templates, err := views.Load()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化websocket
	hub := websocket.NewHub(rdb, logger)
	if err := hub.Start(ctx); err != nil {
		logger.Fatal("failed to start websocket hub", zap.Error(err))
	}
	defer hub.Close()

	accessLog := middleware.NewAccessLogger(logger, rdb)
	accessLog.Start()
	defer accessLog.Close()

	// 仓储和服务
	books := repository.NewBookRepository(db)
	users := repository.NewUserRepository(db)
	comments := repository.NewCommentRepository(db)
	sales := repository.NewSaleRepository(db)

	bookService := services.NewBookService(books, sales, cfg.Server.MarketMode, logger,
		services.WithBookCache(rdb),
		services.WithImageStore(images),
		services.WithSaleNotifier(hub),
	)
	authService := services.NewAuthService(users, config.NewJWTService(cfg.JWT), rdb, &services.AuthConfig{
		MaxLoginAttempts:   config.GetEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginBlockDuration: config.GetEnvDuration("LOGIN_BLOCK_DURATION", 15*time.Minute),
		IsAdminEmail:       cfg.IsAdminEmail,
	}, logger)
	saleService := services.NewSaleService(sales, books, users, logger)

	handlers := &routes.Handlers{
		Auth:    controllers.NewAuthController(authService, cfg.Server.SecureCookie),
		Book:    controllers.NewBookController(bookService),
		User:    controllers.NewUserController(services.NewUserService(users, logger)),
		Comment: controllers.NewCommentController(services.NewCommentService(comments, logger)),
		Sale:    controllers.NewSaleController(saleService),
		Admin:   controllers.NewAdminController(saleService),
	}

	opts := &routes.Options{
		Sessions:  authService,
		Templates: templates,
		CORS:      middleware.GetDefaultCORSConfig(cfg.Server.AllowOrigins),
		AccessLog: accessLog,
		Hub:       hub,
	}
	if local, ok := images.(*storage.LocalStore); ok {
		opts.UploadDir = local.Root()
	}

	// 设置路由
	r := config.SetupRouter(cfg.Server, db, rdb)
	routes.SetupRoutes(r, handlers, opts)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("market_mode", cfg.Server.MarketMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}
