package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"paircall-service/internal/auth"
	"paircall-service/internal/config"
	"paircall-service/internal/db"
	"paircall-service/internal/handlers"
	"paircall-service/internal/middleware"
	"paircall-service/internal/observability"
	"paircall-service/internal/presence"
	"paircall-service/internal/rabbitmq"
	"paircall-service/internal/repositories"
	"paircall-service/internal/telemetry"
	"paircall-service/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown failed: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	if publisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(publisher)
		defer publisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	emitter := telemetry.NewAuditEmitter(auditPublisher, "audit_log.paircall", cfg.ServiceName, cfg.Environment)

	tokens := auth.NewTokenManager(cfg.JWTSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour)
	presenceStore := presence.NewStore(redisClient)

	userRepo := repositories.NewUserRepo(database)
	friendshipRepo := repositories.NewFriendshipRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	storeRepo := repositories.NewStoreRepo(database)
	callRepo := repositories.NewCallRepo(database)
	filterRepo := repositories.NewFilterRepo(database)

	hub := ws.NewHub()
	wsRouter := ws.NewRouter(hub, presenceStore, userRepo)
	gateway := ws.NewGateway(hub, wsRouter, tokens, presenceStore, userRepo)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, presenceStore, emitter, cfg.Debug)
	userHandler := handlers.NewUserHandler(userRepo, presenceStore)
	friendHandler := handlers.NewFriendHandler(friendshipRepo, userRepo, presenceStore, hub)
	chatHandler := handlers.NewChatHandler(messageRepo, userRepo, hub)
	storeHandler := handlers.NewStoreHandler(storeRepo, userRepo, emitter)
	filterHandler := handlers.NewFilterHandler(filterRepo, presenceStore)
	callHandler := handlers.NewCallHandler(callRepo, userRepo, friendshipRepo, hub)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	handlers.RegisterDebugRoutes(router, emitter, cfg.Debug)

	authRequired := middleware.AuthMiddleware(tokens)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authRequired, authHandler.Logout)
		authRoutes.GET("/me", authRequired, authHandler.Me)
		authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
		authRoutes.POST("/reset-password", authHandler.ResetPassword)
	}

	users := router.Group("/users", authRequired)
	{
		users.GET("/me", userHandler.GetMe)
		users.PUT("/me", userHandler.UpdateMe)
		users.DELETE("/me", userHandler.DeleteMe)
		users.GET("/online", userHandler.OnlineUsers)
		users.GET("/search", userHandler.Search)
		users.GET("/:user_id", userHandler.GetUser)
	}

	friends := router.Group("/friends", authRequired)
	{
		friends.GET("", friendHandler.List)
		friends.POST("/request", friendHandler.Request)
		friends.PUT("/:id/accept", friendHandler.Accept)
		friends.PUT("/:id/reject", friendHandler.Reject)
		friends.DELETE("/:id", friendHandler.Remove)
		friends.GET("/pending/sent", friendHandler.PendingSent)
		friends.GET("/pending/received", friendHandler.PendingReceived)
	}

	chats := router.Group("/chats", authRequired)
	{
		chats.GET("", chatHandler.ListChats)
		chats.GET("/:user_id/messages", chatHandler.GetMessages)
		chats.POST("/:user_id/messages", chatHandler.SendMessage)
		chats.PUT("/messages/:message_id/read", chatHandler.MarkRead)
		chats.DELETE("/messages/:message_id", chatHandler.DeleteMessage)
		chats.GET("/unread/count", chatHandler.UnreadCount)
	}

	store := router.Group("/store")
	{
		store.GET("/items", storeHandler.ListItems)
		store.GET("/items/:item_id", storeHandler.GetItem)
		store.GET("/featured", storeHandler.Featured)
		store.GET("/categories", storeHandler.Categories)
		store.POST("/purchase", authRequired, storeHandler.Purchase)
		store.GET("/purchases", authRequired, storeHandler.ListPurchases)
		store.GET("/purchases/:purchase_id", authRequired, storeHandler.GetPurchase)
	}

	filters := router.Group("/filters", authRequired)
	{
		filters.GET("", filterHandler.List)
		filters.POST("", filterHandler.Create)
		filters.GET("/active", filterHandler.Active)
		filters.GET("/:filter_id", filterHandler.Get)
		filters.PUT("/:filter_id", filterHandler.Update)
		filters.DELETE("/:filter_id", filterHandler.Delete)
		filters.POST("/:filter_id/apply", filterHandler.Apply)
		filters.PUT("/:filter_id/activate", filterHandler.Activate)
	}

	calls := router.Group("/calls", authRequired)
	{
		calls.GET("", callHandler.List)
		calls.POST("", callHandler.Start)
		calls.PUT("/:id/accept", callHandler.Accept)
		calls.PUT("/:id/reject", callHandler.Reject)
		calls.PUT("/:id/end", callHandler.End)
		calls.GET("/active", callHandler.Active)
	}

	router.GET("/ws", gateway.Handle)

	log.Printf("listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
