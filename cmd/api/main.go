package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/healthtracker/healthtracker/internal/config"
	"github.com/healthtracker/healthtracker/internal/handlers"
	"github.com/healthtracker/healthtracker/internal/hub"
	"github.com/healthtracker/healthtracker/internal/middleware"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/cache"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLoggerWithLevel(cfg.Log.Level)
	logger.Info("Starting HealthTracker API server...")

	// 初始化数据库
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// 自动迁移数据库表
	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	// 初始化Redis缓存
	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	// 检查Redis连接
	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// 初始化Kafka生产者
	communityProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.CommunityEvents)
	defer communityProducer.Close()

	// chat events are for downstream consumers; the community worker does not read them
	chatProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ChatEvents)
	defer chatProducer.Close()

	// 初始化仓库
	userRepo := repository.NewUserRepository(db.DB)
	friendshipRepo := repository.NewFriendshipRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	workoutRepo := repository.NewWorkoutRepository(db.DB)
	exerciseRepo := repository.NewExerciseRepository(db.DB)
	goalRepo := repository.NewGoalRepository(db.DB)

	// 初始化服务
	userService := services.NewUserService(userRepo, communityProducer, logger)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, communityProducer, logger)
	feedService := services.NewFeedService(postRepo, commentRepo, likeRepo, userRepo, friendshipRepo, redisClient, communityProducer, &cfg.Feed, logger)
	likeService := services.NewLikeService(postRepo, likeRepo, userRepo, communityProducer, logger)
	commentService := services.NewCommentService(postRepo, commentRepo, userRepo, communityProducer, logger)
	chatService := services.NewChatService(messageRepo, userRepo, chatProducer, logger)
	activityService := services.NewActivityService(workoutRepo, exerciseRepo, goalRepo, userRepo, logger)

	// 实时聊天
	chatHub := hub.NewHub(chatService, logger, hub.Options{
		SendBuffer:   cfg.Chat.SendBuffer,
		PingInterval: cfg.Chat.PingInterval,
		WriteTimeout: cfg.Chat.WriteTimeout,
	})

	// 初始化处理器
	h := &handlers.Handlers{
		User:       handlers.NewUserHandler(userService, cfg.JWT.Secret, cfg.JWT.ExpireTime, logger),
		Friendship: handlers.NewFriendshipHandler(friendshipService, logger),
		Feed:       handlers.NewFeedHandler(feedService, likeService, commentService, &cfg.Feed, logger),
		Chat:       handlers.NewChatHandler(chatService, chatHub, logger),
		Activity:   handlers.NewActivityHandler(activityService, logger),
		ChatHub:    chatHub.ServeWS,
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(cors.New(corsConfig(cfg.Server.AllowOrigins)))

	handlers.RegisterRoutes(router, h, &middleware.JWTConfig{Secret: cfg.JWT.Secret})

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// corsConfig allows any origin when none is configured, without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func init() {
	// 创建必要的目录
	dirs := []string{"logs", "configs"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("Failed to create directory %s: %v", dir, err)
		}
	}

	// 创建默认配置文件（如果不存在）
	configPath := "configs/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s
  allow_origins:
    - "http://localhost:3000"

database:
  host: "localhost"
  port: 5432
  user: "healthtracker"
  password: "healthtracker"
  dbname: "healthtracker"
  sslmode: "disable"
  max_open_conns: 50
  max_idle_conns: 10
  log_level: "warn"

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 50
  min_idle_conns: 10

kafka:
  brokers:
    - "localhost:9092"
  topics:
    community_events: "community-events"
    chat_events: "chat-events"
  group_id: "community-worker-group"

jwt:
  secret: "change-me-in-production"
  expire_time: 24h

feed:
  cache_ttl: 5m
  default_page_size: 10
  max_page_size: 100

chat:
  send_buffer: 32
  ping_interval: 25s
  write_timeout: 10s

log:
  level: "info"`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
