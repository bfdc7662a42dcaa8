package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/config"
	"stream-chat-service/internal/db"
	"stream-chat-service/internal/handlers"
	"stream-chat-service/internal/middleware"
	"stream-chat-service/internal/models"
	"stream-chat-service/internal/observability"
	"stream-chat-service/internal/rabbitmq"
	"stream-chat-service/internal/repositories"
	"stream-chat-service/internal/spam"
	"stream-chat-service/internal/telemetry"
	"stream-chat-service/internal/ws"
)

const serviceName = "stream-chat-service"

func main() {
	cfg := config.Load()

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, falling back to in-memory rate state: %v", err)
		}
		cancel()
	}

	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)
	moderationRepo := repositories.NewModerationRepo(database)
	streamRepo := repositories.NewStreamRepo(database)

	history := spam.NewHistoryStore(rdb, time.Now)
	blocklist := spam.NewBlocklist(rdb, time.Now)
	detector := spam.NewDetector(time.Now)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	if mode := rabbitmq.PublisherMode(publisher); mode != "amqp" {
		log.Printf("audit publisher mode=%s reason=%q", mode, rabbitmq.PublisherNoopReason(publisher))
	}
	audit := telemetry.NewAuditEmitter(publisher, "moderation.audit", serviceName, cfg.Environment)

	if cfg.AMQPURL != "" {
		if lifecycle, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
			log.Printf("lifecycle events disabled: %v", err)
		} else {
			observability.SetPublisher(lifecycle)
		}
	}

	hub := ws.NewHub()
	relay := ws.NewRelay(hub, streamRepo, time.Now)
	chatSvc := chat.NewService(messageRepo, userRepo, moderationRepo, history, blocklist, detector, hub, audit)

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)
	roomWS := ws.NewRoomWebSocketHandler(hub, chatSvc, relay, verifier)
	roomHandler := handlers.NewRoomHandler(messageRepo, streamRepo)
	moderationHandler := handlers.NewModerationHandler(userRepo, moderationRepo, blocklist)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)
	moderatorOnly := middleware.RequireRole(models.RoleModerator)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/rooms/:room_id/messages", authMiddleware, roomHandler.GetRoomMessages)
	router.GET("/rooms/:room_id/stream", authMiddleware, roomHandler.GetRoomStream)

	router.GET("/moderation/stats", authMiddleware, moderatorOnly, moderationHandler.GetStats)
	router.GET("/moderation/logs", authMiddleware, moderatorOnly, moderationHandler.GetLogs)
	router.POST("/moderation/unblock/:user_id", authMiddleware, moderatorOnly, moderationHandler.Unblock)

	router.GET("/ws", roomWS.Handle)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
