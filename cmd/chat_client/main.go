package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ephemeral_chat/internal/chat/app"
	"ephemeral_chat/internal/chat/repository"
	"ephemeral_chat/internal/chat/router"
	"ephemeral_chat/pkg/config"
	"ephemeral_chat/pkg/database"
	"ephemeral_chat/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatClient, config.EnvConfig.ChatClientLogPath)
	cfg := config.LoadConfig[config.Client](config.EnvConfig.ChatClient, config.EnvConfig.ChatClientYAMLPath)

	ctx := context.Background()
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.Mongo.RetryCount,
			RetryInterval: time.Duration(cfg.Mongo.RetryInterval) * time.Second,
		},
		cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	redisClient, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	roomRepo := repository.NewMongoRoomRepository(mongo.Database)
	pubsub := repository.NewRedisPubSub(redisClient)
	presence := repository.NewRedisPresence(redisClient)

	controller := app.NewSessionController(app.SystemClock(), app.SystemScheduler(), app.Backends{
		Messages: msgRepo,
		Rooms:    roomRepo,
		Realtime: pubsub,
		Presence: presence,
	})
	defer controller.Close()

	if err := controller.Connect(ctx); err != nil {
		logger.Log.Fatal("initial connectivity probe failed", zap.Error(err))
	}
	logger.Log.Info("connected", zap.String("session_id", controller.SessionID()))

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatClientLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewChatWebsocketHandler(controller))

	port := ":" + cfg.Port
	log.Printf("Chat Client listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
