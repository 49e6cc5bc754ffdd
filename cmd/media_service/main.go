package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"video_sharing_service/internal/media/api/handlers"
	"video_sharing_service/internal/media/api/router"
	"video_sharing_service/internal/media/app"
	"video_sharing_service/internal/media/domain"
	"video_sharing_service/internal/media/repository"
	"video_sharing_service/pkg/config"
	"video_sharing_service/pkg/database"
	"video_sharing_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MediaService, config.EnvConfig.MediaServiceLogPath)

	cfg := config.LoadConfig[config.Media](config.EnvConfig.MediaService, config.EnvConfig.MediaServiceYAMLPath)

	// 1. 連線 MongoDB
	mongoURI := fmt.Sprintf("mongodb://%s:%d", cfg.Mongo.Host, cfg.Mongo.Port)
	if cfg.Mongo.User != "" {
		mongoURI = fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	mongoDB, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    mongoURI,
		RetryCount:    cfg.Mongo.RetryCount,
		RetryInterval: time.Duration(cfg.Mongo.RetryInterval) * time.Second,
	}, cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.Mongo.Host, cfg.Mongo.Port)),
			zap.Error(err),
		)
	}
	defer mongoDB.Close(context.Background())

	videoRepo := repository.NewVideoRepo(mongoDB.Database)

	// 2. 初始化 MinIO 客戶端
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.BucketName,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: cfg.MinIO.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to minio after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.MinIO.Host, cfg.MinIO.Port)),
			zap.Error(err),
		)
	}

	// 3. 連線 RabbitMQ，宣告通知用 queue
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: cfg.RabbitMQ.RetryInterval,
	})
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, cfg.RabbitMQ.RetryInterval)
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}
	defer rabbitChannel.Close()

	if _, err := rabbitChannel.QueueDeclare(
		domain.MediaEventQueue, // queue name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		nil,                    // arguments
	); err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}

	// 4. 初始化影片記錄快取，連不上時降級為直接讀資料庫
	var assetCache database.RedisRepository[domain.VideoAsset]
	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	assetCache, err = database.NewRedisRepository[domain.VideoAsset]("", redisAddr, nil, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("Redis[%s] 連線失敗，停用影片記錄快取: %v", redisAddr, err))
		assetCache = nil
	}

	// 5. 組裝轉碼管線與 usecase
	encoder := app.NewFFmpegEncoder(time.Duration(cfg.Transcode.EncodeTimeoutSec) * time.Second)
	orchestrator := app.NewTranscodeOrchestrator(encoder, cfg.Transcode.WorkerLimit)
	usecase := app.NewMediaUseCase(
		minioClient,
		videoRepo,
		orchestrator,
		assetCache,
		database.NewRabbitRepository(rabbitChannel),
		cfg.Transcode.ScratchDir,
		time.Duration(cfg.Transcode.PresignExpirySec)*time.Second,
		time.Duration(cfg.Transcode.CacheTTLSec)*time.Second,
		time.Duration(cfg.Transcode.StorageTimeoutSec)*time.Second,
	)

	// 6. 建立 Fiber 應用
	r := fiber.New(fiber.Config{
		BodyLimit: 1024 * 1024 * 1024, // 上傳影片的 body 上限
	})
	// 添加日誌中間件
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MediaServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 將日誌輸出到檔案
	}))

	// 7. 設定 API 路由並啟動服務
	mediaHandler := handlers.NewMediaHandler(usecase)
	router.RegisterRoutes(r, mediaHandler)

	logger.Log.Info(fmt.Sprintf("MediaService listening on : %s", cfg.Port))
	if err := r.Listen(cfg.IP + ":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
