package main

import (
	"context"
	"fmt"
	"log"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/api"
	"github.com/soulspace/soulspace_server/internal/api/handler"
	"github.com/soulspace/soulspace_server/internal/database"
	"github.com/soulspace/soulspace_server/internal/pkg/email"
	"github.com/soulspace/soulspace_server/internal/pkg/llm"
	"github.com/soulspace/soulspace_server/internal/pkg/oauth"
	"github.com/soulspace/soulspace_server/internal/pkg/oss"
	"github.com/soulspace/soulspace_server/internal/pkg/pubsub"
	"github.com/soulspace/soulspace_server/internal/pkg/queue"
	"github.com/soulspace/soulspace_server/internal/pkg/tts"
	"github.com/soulspace/soulspace_server/internal/pkg/ws"
	"github.com/soulspace/soulspace_server/internal/repository"
	"github.com/soulspace/soulspace_server/internal/service"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// OSS is optional; without it voice replies and avatars degrade
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	var mailer *email.Service
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewService(&cfg.Email)
		log.Println("Mailer initialized")
	}

	var synth tts.Synthesizer
	if cfg.ElevenLabs.APIKey != "" {
		synth = tts.NewElevenLabsClient(&cfg.ElevenLabs)
		log.Println("TTS client initialized")
	}

	llmClient := llm.NewAnthropicClient(&cfg.Anthropic)
	crmQueue := queue.NewQueue(rdb, cfg.Queue.CRMSyncQueue)
	stateStore := oauth.NewStateStore(rdb)
	wsHub := ws.NewHub()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	chatRepo := repository.NewChatRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	forumRepo := repository.NewForumRepository(db)

	// Services
	limiter := service.NewChatLimitService(subRepo)
	authService := service.NewAuthService(userRepo, limiter, crmQueue, mailer, cfg)
	userService := service.NewUserService(userRepo, limiter, ossClient, cfg)
	chatService := service.NewChatService(chatRepo, limiter, llmClient, synth, ossClient, wsHub, cfg)
	courseService := service.NewCourseService(courseRepo, limiter)
	forumService := service.NewForumService(forumRepo)
	subscriptionService := service.NewSubscriptionService(subRepo, userRepo, crmQueue, mailer, wsHub, cfg)
	ttsService := service.NewTTSService(synth, ossClient, limiter)

	// The worker publishes account events; relay them to live tabs
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.AccountMessage) {
			if err := wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to relay account event to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil {
			log.Printf("Account event subscriber stopped: %v", err)
		}
	}()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, stateStore)
	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(chatService)
	courseHandler := handler.NewCourseHandler(courseService)
	forumHandler := handler.NewForumHandler(forumService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, userService)
	ttsHandler := handler.NewTTSHandler(ttsService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	router := api.NewRouter(
		authHandler,
		userHandler,
		chatHandler,
		courseHandler,
		forumHandler,
		subscriptionHandler,
		ttsHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
