package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"vio-chat-service/internal/backend"
	"vio-chat-service/internal/config"
	"vio-chat-service/internal/db"
	"vio-chat-service/internal/friends"
	grpcserver "vio-chat-service/internal/grpc"
	"vio-chat-service/internal/handlers"
	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/media"
	"vio-chat-service/internal/middleware"
	"vio-chat-service/internal/observability"
	"vio-chat-service/internal/rabbitmq"
	"vio-chat-service/internal/repositories"
	"vio-chat-service/internal/storage"
	"vio-chat-service/internal/storage/memory"
	redisstore "vio-chat-service/internal/storage/redis"
	"vio-chat-service/internal/telemetry"
	"vio-chat-service/internal/unread"
	"vio-chat-service/internal/users"
	"vio-chat-service/internal/ws"
)

const (
	serviceName     = "vio-chat-service"
	auditRoutingKey = "audit.chat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	var store storage.Store
	if cfg.RedisURL != "" {
		store, err = redisstore.New(ctx, cfg.RedisURL, cfg.UserCacheTTL)
		if err != nil {
			logger.Log.Fatal("failed to connect to redis", zap.Error(err))
		}
	} else {
		logger.Info("REDIS_URL not set, keeping counters in process")
		store = memory.New(cfg.UserCacheTTL)
	}
	defer store.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	logger.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)))
	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, serviceName, cfg.Env)

	mediaStore, err := media.NewStore(cfg.Cloudinary)
	if err != nil {
		logger.Warn("media uploads disabled", zap.Error(err))
		mediaStore = media.Disabled{}
	}
	notifier := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	if !notifier.Enabled() {
		logger.Info("BACKEND_URL not set, push and assistant disabled")
	}

	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)
	friendRepo := repositories.NewFriendRepo(database)

	friendService := friends.NewService(friendRepo, userRepo)
	directory := users.NewDirectory(userRepo, store)
	tracker := unread.NewTracker(messageRepo, store)

	hub := ws.NewHub()
	if cfg.NATSURL != "" {
		relay, err := ws.NewNATSRelay(cfg.NATSURL, ws.DefaultRelaySubject)
		if err != nil {
			logger.Log.Fatal("failed to connect to nats", zap.Error(err))
		}
		if err := relay.Start(hub); err != nil {
			logger.Log.Fatal("failed to subscribe to room events", zap.Error(err))
		}
		defer relay.Close()
		hub.SetRelay(relay)
	}

	validator := middleware.NewJWTValidator(cfg.JWTSecret)

	chatHandler := handlers.NewChatHandler(handlers.ChatDeps{
		Messages: messageRepo,
		Users:    userRepo,
		Gate:     friendService.Gate(),
		Unread:   tracker,
		Dir:      directory,
		Media:    mediaStore,
		Notifier: notifier,
		Hub:      hub,
		Audit:    audit,
	})
	userHandler := handlers.NewUserHandler(userRepo, directory, tracker)
	friendHandler := handlers.NewFriendHandler(friendService, audit)
	mediaHandler := handlers.NewMediaHandler(mediaStore, userRepo, directory)
	assistantHandler := handlers.NewAssistantHandler(notifier)

	chatWS := ws.NewChatWebSocketHandler(hub, userRepo, validator)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		middleware.RequestID(),
		middleware.RequestLogger(),
		observability.HTTPMetricsMiddleware(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(validator)

	router.GET("/chats/:peer_id/messages", authMiddleware, chatHandler.ListMessages)
	router.POST("/chats/:peer_id/messages", authMiddleware, chatHandler.PostMessage)
	router.POST("/chats/:peer_id/voice", authMiddleware, chatHandler.PostVoice)
	router.POST("/chats/:peer_id/seen", authMiddleware, chatHandler.MarkSeen)
	router.PATCH("/chats/:peer_id/messages/:message_id", authMiddleware, chatHandler.EditMessage)
	router.GET("/chats/:peer_id/messages/:message_id/history", authMiddleware, chatHandler.MessageHistory)
	router.DELETE("/chats/:peer_id/messages/:message_id/me", authMiddleware, chatHandler.DeleteMessageForMe)
	router.DELETE("/chats/:peer_id/messages/:message_id/all", authMiddleware, chatHandler.DeleteMessageForAll)

	router.PUT("/users/me", authMiddleware, userHandler.SaveProfile)
	router.PATCH("/users/me", authMiddleware, userHandler.UpdateProfile)
	router.GET("/users/me", authMiddleware, userHandler.Me)
	router.PUT("/users/me/fcm-token", authMiddleware, userHandler.SetFCMToken)
	router.POST("/users/me/avatar", authMiddleware, mediaHandler.UploadAvatar)
	router.DELETE("/users/me/avatar", authMiddleware, mediaHandler.DeleteAvatar)
	router.GET("/users/search", authMiddleware, userHandler.Search)
	router.GET("/users/:uid", authMiddleware, userHandler.GetUser)
	router.GET("/contacts", authMiddleware, userHandler.Contacts)

	router.GET("/friends", authMiddleware, friendHandler.ListFriends)
	router.POST("/friends/requests", authMiddleware, friendHandler.SendRequest)
	router.GET("/friends/requests", authMiddleware, friendHandler.IncomingRequests)
	router.POST("/friends/requests/:sender_id/accept", authMiddleware, friendHandler.AcceptRequest)
	router.POST("/friends/requests/:sender_id/decline", authMiddleware, friendHandler.DeclineRequest)
	router.POST("/friends/:uid", authMiddleware, friendHandler.AddFriend)
	router.GET("/friends/:uid/status", authMiddleware, friendHandler.Status)

	router.POST("/assistant/analyze", authMiddleware, assistantHandler.Analyze)
	router.POST("/assistant/speak", authMiddleware, assistantHandler.Speak)

	router.GET("/ws/chats/:peer_id", chatWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, hub, cfg.DebugRoutes)

	grpcSrv := grpcserver.NewServer()
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Log.Fatal("failed to listen grpc", zap.Error(err))
	}
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", zap.Error(err))
		}
	}()
	go grpcSrv.Monitor(ctx, 15*time.Second, map[string]grpcserver.Check{
		"postgres": database.PingContext,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port), zap.String("grpc_port", cfg.GRPCPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	grpcSrv.Stop()
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}
}
